package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// maxConns <= 0 selects the default pool size.
func NewPostgresStore(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if maxConns <= 0 {
		maxConns = defaultPoolSize
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// GetSettings retrieves the singleton settings row.
func (s *PostgresStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	st := &domain.Settings{}
	err := s.pool.QueryRow(ctx, queryGetSettings).Scan(
		&st.Band.Min, &st.Band.Max, &st.KeychainThreshold, &st.EnabledKeychains, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// EnsureSettings inserts the defaults when no settings row exists yet and
// returns the current row either way.
func (s *PostgresStore) EnsureSettings(
	ctx context.Context,
	defaults *domain.Settings,
) (*domain.Settings, error) {
	args := pgx.NamedArgs{
		"band_min":           defaults.Band.Min,
		"band_max":           defaults.Band.Max,
		"keychain_threshold": defaults.KeychainThreshold,
		"enabled_keychains":  defaults.EnabledKeychains,
	}
	if _, err := s.pool.Exec(ctx, queryEnsureSettings, args); err != nil {
		return nil, fmt.Errorf("seeding settings: %w", err)
	}
	return s.GetSettings(ctx)
}

// ReplacePriceBand updates the price deviation band.
func (s *PostgresStore) ReplacePriceBand(ctx context.Context, min, max float64) error {
	_, err := s.pool.Exec(ctx, queryReplacePriceBand, min, max)
	if err != nil {
		return fmt.Errorf("replacing price band: %w", err)
	}
	return nil
}

// ReplaceKeychainThreshold updates the keychain percentage threshold.
func (s *PostgresStore) ReplaceKeychainThreshold(ctx context.Context, pct float64) error {
	_, err := s.pool.Exec(ctx, queryReplaceKeychainThreshold, pct)
	if err != nil {
		return fmt.Errorf("replacing keychain threshold: %w", err)
	}
	return nil
}

// ReplaceEnabledKeychains updates the enabled keychain name list.
func (s *PostgresStore) ReplaceEnabledKeychains(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	_, err := s.pool.Exec(ctx, queryReplaceEnabledKeychains, names)
	if err != nil {
		return fmt.Errorf("replacing enabled keychains: %w", err)
	}
	return nil
}

// ListTargetEntries returns the target list in stored order.
func (s *PostgresStore) ListTargetEntries(ctx context.Context) ([]domain.TargetEntry, error) {
	rows, err := s.pool.Query(ctx, queryListTargetEntries)
	if err != nil {
		return nil, fmt.Errorf("querying target entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TargetEntry
	for rows.Next() {
		var e domain.TargetEntry
		if err := scanTargetEntry(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceTargetEntries swaps the whole target list in one transaction,
// writing list positions so read order matches write order.
func (s *PostgresStore) ReplaceTargetEntries(
	ctx context.Context,
	entries []domain.TargetEntry,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, queryDeleteTargetEntries); err != nil {
		return fmt.Errorf("clearing target entries: %w", err)
	}

	for i := range entries {
		e := &entries[i]

		floatJSON, pctJSON, priceJSON, err := marshalEntryFilters(e)
		if err != nil {
			return err
		}

		args := pgx.NamedArgs{
			"id":                  e.ID,
			"position":            i,
			"keyword":             e.Keyword,
			"universal":           e.Universal,
			"float_filter":        floatJSON,
			"percent_diff_filter": pctJSON,
			"price_filter":        priceJSON,
			"created_at":          e.CreatedAt,
			"updated_at":          e.UpdatedAt,
		}
		if _, err := tx.Exec(ctx, queryInsertTargetEntry, args); err != nil {
			return fmt.Errorf("inserting target entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing target entries: %w", err)
	}
	return nil
}

// InsertNotifiedItem appends one row to the notification history.
func (s *PostgresStore) InsertNotifiedItem(ctx context.Context, n *domain.NotifiedItem) error {
	args := pgx.NamedArgs{
		"item_id":           n.ItemID,
		"market_name":       n.MarketName,
		"market_value":      n.MarketValue,
		"notification_type": string(n.NotificationType),
		"matched_keyword":   n.MatchedKeyword,
		"charm_name":        n.CharmName,
		"charm_category":    n.CharmCategory,
		"charm_price":       n.CharmPrice,
		"percent_diff":      n.PercentDiff,
		"notified_at":       n.NotifiedAt,
	}

	if err := s.pool.QueryRow(ctx, queryInsertNotifiedItem, args).Scan(&n.ID); err != nil {
		return fmt.Errorf("inserting notified item: %w", err)
	}
	return nil
}

// ListNotifiedItems queries the notification history with optional filters,
// returning results and the unfiltered-by-pagination total count.
func (s *PostgresStore) ListNotifiedItems(
	ctx context.Context,
	opts *NotificationQuery,
) ([]domain.NotifiedItem, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting notified items: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying notified items: %w", err)
	}
	defer rows.Close()

	var items []domain.NotifiedItem
	for rows.Next() {
		var n domain.NotifiedItem
		if err := rows.Scan(
			&n.ID, &n.ItemID, &n.MarketName, &n.MarketValue, &n.NotificationType,
			&n.MatchedKeyword, &n.CharmName, &n.CharmCategory,
			&n.CharmPrice, &n.PercentDiff, &n.NotifiedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning notified item: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating notified items: %w", err)
	}

	return items, total, nil
}

// InsertJobRun records the start of a job and returns its UUID.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// FinishJobRun marks a job run as finished with the given status and metadata.
func (s *PostgresStore) FinishJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	itemsProcessed int,
) error {
	_, err := s.pool.Exec(ctx, queryFinishJobRun, id, status, errText, itemsProcessed)
	if err != nil {
		return fmt.Errorf("finishing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
func (s *PostgresStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// RecoverStaleJobRuns marks any 'running' job rows older than olderThan as
// 'crashed', then deletes all rows older than 30 days. Returns the number of
// rows marked as crashed.
func (s *PostgresStore) RecoverStaleJobRuns(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryMarkStaleJobRunsCrashed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("marking stale job runs crashed: %w", err)
	}
	affected := int(tag.RowsAffected())

	if _, err := s.pool.Exec(ctx, queryDeleteOldJobRuns); err != nil {
		return affected, fmt.Errorf("deleting old job runs: %w", err)
	}

	return affected, nil
}

// scanJobRuns scans rows from a job_runs query into a slice.
func scanJobRuns(rows pgx.Rows) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.ItemsProcessed,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// scanTargetEntry scans one target_entries row, decoding the JSONB filter
// columns. Filters stored as JSON null decode to nil pointers.
func scanTargetEntry(rows pgx.Rows, e *domain.TargetEntry) error {
	var floatJSON, pctJSON, priceJSON []byte

	if err := rows.Scan(
		&e.ID, &e.Keyword, &e.Universal,
		&floatJSON, &pctJSON, &priceJSON,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return fmt.Errorf("scanning target entry: %w", err)
	}

	if err := json.Unmarshal(floatJSON, &e.Float); err != nil {
		return fmt.Errorf("unmarshaling float filter: %w", err)
	}
	if err := json.Unmarshal(pctJSON, &e.PercentDiff); err != nil {
		return fmt.Errorf("unmarshaling percent diff filter: %w", err)
	}
	if err := json.Unmarshal(priceJSON, &e.Price); err != nil {
		return fmt.Errorf("unmarshaling price filter: %w", err)
	}
	return nil
}

// marshalEntryFilters encodes an entry's three sub-filters for JSONB storage.
// Nil filters encode as JSON null, never SQL NULL.
func marshalEntryFilters(e *domain.TargetEntry) (floatJSON, pctJSON, priceJSON []byte, err error) {
	if floatJSON, err = json.Marshal(e.Float); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling float filter: %w", err)
	}
	if pctJSON, err = json.Marshal(e.PercentDiff); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling percent diff filter: %w", err)
	}
	if priceJSON, err = json.Marshal(e.Price); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling price filter: %w", err)
	}
	return floatJSON, pctJSON, priceJSON, nil
}
