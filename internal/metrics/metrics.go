// Package metrics defines Prometheus metrics for the empire feed monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "empire"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last liveness probe succeeded (0 or 1).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last readiness probe succeeded (0 or 1).",
	})
)

// Engine metrics.
var (
	ItemsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_items_processed_total",
		Help:      "Total number of feed items classified.",
	})

	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_matches_total",
		Help:      "Total accepted items by match category.",
	}, []string{"category"})

	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_rejections_total",
		Help:      "Total rejected items by reason.",
	}, []string{"reason"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "engine_batch_duration_seconds",
		Help:      "Duration of feed batch processing in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	DuplicatesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_duplicates_suppressed_total",
		Help:      "Total accepted items suppressed by the dedup ledger.",
	})

	LedgerSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "engine_ledger_size",
		Help:      "Current number of ids held by the dedup ledger.",
	})

	RulesVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rules_version",
		Help:      "Version of the active rule snapshot.",
	})
)

// Feed metrics.
var (
	FeedFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_frames_total",
		Help:      "Total websocket frames received by event name.",
	}, []string{"event"})

	FeedItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_items_total",
		Help:      "Total items delivered by the feed.",
	})

	FeedReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_reconnects_total",
		Help:      "Total feed reconnection attempts.",
	})

	FeedConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_connected",
		Help:      "Whether the feed websocket is currently connected (0 or 1).",
	})
)

// Reference pricing metrics.
var (
	ReferenceRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_refreshes_total",
		Help:      "Total reference table refresh attempts by outcome.",
	}, []string{"status"})

	ReferenceTableEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reference_table_entries",
		Help:      "Number of entries in the cached reference price table.",
	})

	ReferenceFetchCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_fetch_calls_total",
		Help:      "Total cumulative reference source HTTP calls.",
	})

	ReferenceDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_daily_limit_hits_total",
		Help:      "Total number of times the reference source daily cap was reached.",
	})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total notifications delivered by type.",
	}, []string{"type"})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total notification delivery failures.",
	})
)
