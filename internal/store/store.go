// Package store defines the datastore abstraction for the empire monitor.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"time"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// NotificationQuery defines optional filters for notification history queries.
type NotificationQuery struct {
	Type    *string
	Keyword *string
	Since   *time.Time
	Limit   int // default 50
	Offset  int
	OrderBy string // "notified_at", "market_value", "market_name"
}

// Store defines all data access operations for the empire monitor.
type Store interface {
	// Settings (singleton row).
	GetSettings(ctx context.Context) (*domain.Settings, error)
	EnsureSettings(ctx context.Context, defaults *domain.Settings) (*domain.Settings, error)
	ReplacePriceBand(ctx context.Context, min, max float64) error
	ReplaceKeychainThreshold(ctx context.Context, pct float64) error
	ReplaceEnabledKeychains(ctx context.Context, names []string) error

	// Target entries (ordered).
	ListTargetEntries(ctx context.Context) ([]domain.TargetEntry, error)
	ReplaceTargetEntries(ctx context.Context, entries []domain.TargetEntry) error

	// Notification history.
	InsertNotifiedItem(ctx context.Context, n *domain.NotifiedItem) error
	ListNotifiedItems(ctx context.Context, opts *NotificationQuery) ([]domain.NotifiedItem, int, error)

	// Scheduler.
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	FinishJobRun(ctx context.Context, id string, status string, errText string, itemsProcessed int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error)

	// Migrations.
	Migrate(ctx context.Context) error

	// Health.
	Ping(ctx context.Context) error
}
