package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/dedup"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/metrics"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/notify"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// HistoryStore is the persistence surface the engine needs: appending to
// the notification history. Failures are logged, never fatal.
type HistoryStore interface {
	InsertNotifiedItem(ctx context.Context, n *domain.NotifiedItem) error
}

// Engine consumes feed batches, classifies each item against the live rule
// snapshot, suppresses duplicates, and delivers notifications. It is driven
// from a single goroutine; the counters are atomic so the stats endpoint
// can read them concurrently.
type Engine struct {
	rules    *rules.Store
	table    *charm.Table
	pct      PercentProvider
	notifier notify.Notifier
	history  HistoryStore
	ledger   *dedup.Ledger
	log      *slog.Logger

	processed        atomic.Int64
	specificMatches  atomic.Int64
	keychainMatches  atomic.Int64
	universalMatches atomic.Int64
	rejections       atomic.Int64
	duplicates       atomic.Int64
	sent             atomic.Int64
	failed           atomic.Int64
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	r *rules.Store,
	table *charm.Table,
	pct PercentProvider,
	n notify.Notifier,
	h HistoryStore,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		rules:    r,
		table:    table,
		pct:      pct,
		notifier: n,
		history:  h,
		ledger:   dedup.New(dedup.DefaultCapacity),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithLedger replaces the default dedup ledger, used to configure capacity.
func WithLedger(l *dedup.Ledger) EngineOption {
	return func(e *Engine) {
		e.ledger = l
	}
}

// ProcessBatch classifies a batch of feed items in array order. Item-level
// failures (delivery, persistence) are logged and counted without aborting
// the batch; only context cancellation stops it early.
func (eng *Engine) ProcessBatch(ctx context.Context, items []domain.Item) error {
	start := time.Now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		eng.processItem(ctx, &items[i])
	}

	return nil
}

func (eng *Engine) processItem(ctx context.Context, item *domain.Item) {
	eng.processed.Add(1)
	metrics.ItemsProcessedTotal.Inc()

	snap := eng.rules.Current()
	result := Classify(item, snap, eng.table, eng.pct)

	if !result.Accepted() {
		eng.rejections.Add(1)
		metrics.RejectionsTotal.WithLabelValues(string(result.Reason)).Inc()
		eng.log.Debug("item rejected",
			"market_name", item.MarketName,
			"reason", result.Reason,
		)
		return
	}

	metrics.MatchesTotal.WithLabelValues(string(result.Category)).Inc()
	switch result.Category {
	case domain.MatchSpecificTarget:
		eng.specificMatches.Add(1)
	case domain.MatchKeychain:
		eng.keychainMatches.Add(1)
	case domain.MatchUniversal:
		eng.universalMatches.Add(1)
	}

	if eng.ledger.HasNotified(string(item.ID)) {
		eng.duplicates.Add(1)
		metrics.DuplicatesSuppressedTotal.Inc()
		eng.log.Debug("duplicate suppressed", "item_id", item.ID)
		return
	}

	n := buildNotification(item, &result)

	if err := eng.notifier.SendNotification(ctx, n); err != nil {
		eng.failed.Add(1)
		metrics.NotificationFailuresTotal.Inc()
		eng.log.Error("notification delivery failed",
			"market_name", item.MarketName,
			"error", err,
		)
		// Not recorded in the ledger, so a later event for this id may
		// retry.
		return
	}

	eng.sent.Add(1)
	metrics.NotificationsSentTotal.WithLabelValues(string(n.NotificationType)).Inc()
	eng.log.Info("notification sent",
		"market_name", item.MarketName,
		"type", n.NotificationType,
	)

	eng.ledger.RecordNotified(string(item.ID))
	metrics.LedgerSize.Set(float64(eng.ledger.Len()))

	if err := eng.history.InsertNotifiedItem(ctx, historyRow(n)); err != nil {
		eng.log.Error("recording notification history failed",
			"market_name", item.MarketName,
			"error", err,
		)
	}
}

// LedgerSize returns the current number of ids held by the dedup ledger.
func (eng *Engine) LedgerSize() int {
	return eng.ledger.Len()
}

// Stats returns a point-in-time snapshot of the engine counters.
func (eng *Engine) Stats() domain.EngineStats {
	return domain.EngineStats{
		ItemsProcessed:       eng.processed.Load(),
		SpecificMatches:      eng.specificMatches.Load(),
		KeychainMatches:      eng.keychainMatches.Load(),
		UniversalMatches:     eng.universalMatches.Load(),
		Rejected:             eng.rejections.Load(),
		DuplicatesSuppressed: eng.duplicates.Load(),
		NotificationsSent:    eng.sent.Load(),
		NotificationsFailed:  eng.failed.Load(),
	}
}
