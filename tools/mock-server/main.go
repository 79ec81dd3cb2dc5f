// Package main implements a mock upstream for local development. It serves
// the marketplace WebSocket feed and the reference-price document from JSON
// fixtures, so the monitor can run end-to-end without real credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type feedFixture struct {
	Items           []json.RawMessage          `json:"items"`
	ReferencePrices map[string]json.RawMessage `json:"reference_prices"`
}

// frame is the wire envelope for every feed message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type identifyPayload struct {
	APIKey string `json:"api_key"`
}

const (
	eventIdentify = "identify"
	eventNewItems = "new_items"

	identifyWait = 5 * time.Second
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/feed_fixture.json", "path to feed fixture")
	interval := flag.Duration("interval", 2*time.Second, "delay between broadcast batches")
	batchSize := flag.Int("batch", 3, "items per new_items frame")
	apiKey := flag.String("api-key", "", "require this key in the identify frame (empty disables the check)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(fixture.Items), "reference_entries", len(fixture.ReferencePrices))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /socket", feedHandler(logger, fixture, *interval, *batchSize, *apiKey))
	mux.HandleFunc("GET /reference-prices", referenceHandler(logger, fixture))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock upstream", "addr", addr)

	srv := &http.Server{
		Addr:        addr,
		Handler:     requestLogger(logger, mux),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the feed endpoint holds its connection open.
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*feedFixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx feedFixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &fx, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// referenceHandler serves the reference-price document the pricing fetcher
// polls. Keys are served as-is; the fetcher lowercases on its side.
func referenceHandler(logger *slog.Logger, fixture *feedFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		prices := fixture.ReferencePrices
		if prices == nil {
			prices = map[string]json.RawMessage{}
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(prices)
		logger.Info("served reference table", "entries", len(prices))
	}
}

// feedHandler upgrades to WebSocket and broadcasts new_items frames from the
// fixture on a fixed cadence, cycling through the items forever. When an API
// key is configured the first client frame must be a matching identify.
func feedHandler(logger *slog.Logger, fixture *feedFixture, interval time.Duration, batchSize int, apiKey string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		if apiKey != "" {
			if err := awaitIdentify(conn, apiKey); err != nil {
				logger.Warn("rejecting feed client", "error", err)
				deadline := time.Now().Add(time.Second)
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "identify failed"),
					deadline,
				)
				return
			}
		}
		logger.Info("feed client connected", "remote", r.RemoteAddr)

		// Drain client frames so control messages are processed; a read
		// error means the client is gone.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		cursor := 0
		for {
			select {
			case <-done:
				logger.Info("feed client disconnected", "remote", r.RemoteAddr)
				return
			case <-ticker.C:
				batch, next := nextBatch(fixture.Items, cursor, batchSize)
				cursor = next
				if len(batch) == 0 {
					continue
				}
				data, err := json.Marshal(batch)
				if err != nil {
					logger.Error("marshalling batch", "error", err)
					continue
				}
				if err := conn.WriteJSON(frame{Event: eventNewItems, Data: data}); err != nil {
					logger.Info("feed client write failed", "error", err)
					return
				}
				logger.Debug("sent batch", "items", len(batch), "cursor", cursor)
			}
		}
	}
}

// awaitIdentify reads the first client frame and checks its api_key.
func awaitIdentify(conn *websocket.Conn, apiKey string) error {
	if err := conn.SetReadDeadline(time.Now().Add(identifyWait)); err != nil {
		return fmt.Errorf("setting identify deadline: %w", err)
	}
	defer conn.SetReadDeadline(time.Time{}) //nolint:errcheck // clearing a deadline does not fail

	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		return fmt.Errorf("reading identify frame: %w", err)
	}
	if f.Event != eventIdentify {
		return fmt.Errorf("expected %s frame, got %q", eventIdentify, f.Event)
	}
	var p identifyPayload
	if err := json.Unmarshal(f.Data, &p); err != nil {
		return fmt.Errorf("parsing identify payload: %w", err)
	}
	if p.APIKey != apiKey {
		return fmt.Errorf("api key mismatch")
	}
	return nil
}

// nextBatch slices up to size items starting at cursor, wrapping to the
// start of the fixture when it runs off the end.
func nextBatch(items []json.RawMessage, cursor, size int) ([]json.RawMessage, int) {
	if len(items) == 0 || size <= 0 {
		return nil, 0
	}
	if cursor >= len(items) {
		cursor = 0
	}
	end := min(cursor+size, len(items))
	return items[cursor:end], end % len(items)
}
