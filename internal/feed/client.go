// Package feed implements the WebSocket client that consumes the
// marketplace listing-event stream and hands decoded item batches to the
// matching engine.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/metrics"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

const (
	defaultHandshakeTimeout  = 15 * time.Second
	defaultHeartbeatInterval = 20 * time.Second
	defaultReconnectDelay    = 5 * time.Second

	// writeWait bounds control-frame writes so a dead peer cannot wedge
	// the heartbeat goroutine.
	writeWait = 10 * time.Second
)

// Feed event names carried in the frame envelope.
const (
	eventIdentify      = "identify"
	eventNewItems      = "new_items"
	eventAuctionUpdate = "auction_update"
)

// frame is the wire envelope for every feed message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// BatchProcessor receives decoded item batches. The engine implements it.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, items []domain.Item) error
}

// JobRecorder persists feed session job runs. Failures are logged, never
// fatal.
type JobRecorder interface {
	InsertJobRun(ctx context.Context, jobName string) (string, error)
	FinishJobRun(ctx context.Context, id, status, errText string, itemsProcessed int) error
}

// Client maintains a WebSocket connection to the listing-event stream. A
// dropped connection is redialed after a fixed delay; there is no backoff
// state machine.
type Client struct {
	url       string
	apiKey    string
	processor BatchProcessor
	jobs      JobRecorder
	log       *slog.Logger
	dialer    *websocket.Dialer

	heartbeatInterval time.Duration
	reconnectDelay    time.Duration

	connected atomic.Bool
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithAPIKey makes the client send an identify frame carrying the key
// before reading the stream.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHandshakeTimeout bounds the WebSocket dial.
func WithHandshakeTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.dialer.HandshakeTimeout = d
	}
}

// WithHeartbeatInterval sets how often ping frames are sent.
func WithHeartbeatInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.heartbeatInterval = d
	}
}

// WithReconnectDelay sets the fixed wait between sessions.
func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.reconnectDelay = d
	}
}

// WithJobRecorder records each connection as a feed_session job run.
func WithJobRecorder(j JobRecorder) ClientOption {
	return func(c *Client) {
		c.jobs = j
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient builds a feed client for the given stream URL.
func NewClient(url string, processor BatchProcessor, opts ...ClientOption) *Client {
	c := &Client{
		url:               url,
		processor:         processor,
		log:               slog.Default(),
		dialer:            &websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout},
		heartbeatInterval: defaultHeartbeatInterval,
		reconnectDelay:    defaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether the WebSocket is currently established. The
// health endpoint reads it.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run dials the feed and processes frames until ctx is cancelled. Each
// dropped session is retried after the reconnect delay.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.runSession(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Error("feed session ended", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
			metrics.FeedReconnectsTotal.Inc()
			c.log.Debug("reconnecting to feed")
		}
	}
}

// runSession owns one connection: dial, identify, read until the stream
// drops or ctx is cancelled. Each session is recorded as a job run.
func (c *Client) runSession(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing feed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	runID := c.startJobRun(ctx)

	c.connected.Store(true)
	metrics.FeedConnected.Set(1)
	c.log.Info("feed connected", "url", c.url)
	defer func() {
		c.connected.Store(false)
		metrics.FeedConnected.Set(0)
	}()

	if c.apiKey != "" {
		if err := c.identify(conn); err != nil {
			c.finishJobRun(ctx, runID, err, 0)
			return err
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.heartbeat(sessionCtx, conn)

	items, err := c.readLoop(ctx, conn)
	c.finishJobRun(ctx, runID, err, items)
	return err
}

// identify authenticates the session before any frames are read.
func (c *Client) identify(conn *websocket.Conn) error {
	msg := map[string]any{
		"event": eventIdentify,
		"data":  map[string]string{"api_key": c.apiKey},
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("sending identify frame: %w", err)
	}
	return nil
}

// heartbeat sends ping frames until the session ends, closing the
// connection on the way out so a blocked read returns.
func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				deadline,
			)
			conn.Close()
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// readLoop decodes frames until the connection drops or ctx is cancelled.
// It returns the number of items handed to the processor this session. A
// clean close from the peer ends the session without error.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) (int, error) {
	delivered := 0
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return delivered, nil
			}
			return delivered, fmt.Errorf("reading feed frame: %w", err)
		}

		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			c.log.Warn("dropping malformed feed frame", "error", err)
			continue
		}

		metrics.FeedFramesTotal.WithLabelValues(f.Event).Inc()

		items, ok := c.decodeItems(&f)
		if !ok || len(items) == 0 {
			continue
		}

		delivered += len(items)
		metrics.FeedItemsTotal.Add(float64(len(items)))

		if err := c.processor.ProcessBatch(ctx, items); err != nil {
			return delivered, fmt.Errorf("processing feed batch: %w", err)
		}
	}
}

// decodeItems extracts the item batch from a frame. new_items carries an
// array, auction_update a single item; every other event is skipped.
func (c *Client) decodeItems(f *frame) ([]domain.Item, bool) {
	switch f.Event {
	case eventNewItems:
		var items []domain.Item
		if err := json.Unmarshal(f.Data, &items); err != nil {
			c.log.Warn("dropping malformed new_items payload", "error", err)
			return nil, false
		}
		return items, true
	case eventAuctionUpdate:
		var item domain.Item
		if err := json.Unmarshal(f.Data, &item); err != nil {
			c.log.Warn("dropping malformed auction_update payload", "error", err)
			return nil, false
		}
		return []domain.Item{item}, true
	default:
		c.log.Debug("skipping feed event", "event", f.Event)
		return nil, false
	}
}

func (c *Client) startJobRun(ctx context.Context) string {
	if c.jobs == nil {
		return ""
	}
	id, err := c.jobs.InsertJobRun(ctx, domain.JobFeedSession)
	if err != nil {
		c.log.Error("recording feed session start failed", "error", err)
		return ""
	}
	return id
}

// finishJobRun closes the session's job run. Cancellation is a normal
// session end, not a failure, and the bookkeeping write gets its own brief
// deadline because the session context may already be cancelled.
func (c *Client) finishJobRun(ctx context.Context, id string, sessionErr error, items int) {
	if id == "" {
		return
	}

	status := domain.JobStatusSucceeded
	errText := ""
	if sessionErr != nil && !errors.Is(sessionErr, context.Canceled) {
		status = domain.JobStatusFailed
		errText = sessionErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.jobs.FinishJobRun(ctx, id, status, errText, items); err != nil {
		c.log.Error("recording feed session end failed", "error", err)
	}
}
