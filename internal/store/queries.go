package store

// SQL query constants organized by entity.
// All SQL lives here — PostgresStore methods reference these constants.

// Settings queries. The settings table holds exactly one row (id = 1).
const (
	queryGetSettings = `
		SELECT band_min, band_max, keychain_threshold, enabled_keychains, updated_at
		FROM settings
		WHERE id = 1`

	queryEnsureSettings = `
		INSERT INTO settings (id, band_min, band_max, keychain_threshold, enabled_keychains, updated_at)
		VALUES (1, @band_min, @band_max, @keychain_threshold, @enabled_keychains, now())
		ON CONFLICT (id) DO NOTHING`

	queryReplacePriceBand = `
		UPDATE settings SET
			band_min   = $1,
			band_max   = $2,
			updated_at = now()
		WHERE id = 1`

	queryReplaceKeychainThreshold = `
		UPDATE settings SET
			keychain_threshold = $1,
			updated_at         = now()
		WHERE id = 1`

	queryReplaceEnabledKeychains = `
		UPDATE settings SET
			enabled_keychains = $1,
			updated_at        = now()
		WHERE id = 1`
)

// Target entry queries.
const (
	queryListTargetEntries = `
		SELECT id, keyword, universal,
			float_filter, percent_diff_filter, price_filter,
			created_at, updated_at
		FROM target_entries
		ORDER BY position ASC`

	queryDeleteTargetEntries = `DELETE FROM target_entries`

	queryInsertTargetEntry = `
		INSERT INTO target_entries (
			id, position, keyword, universal,
			float_filter, percent_diff_filter, price_filter,
			created_at, updated_at
		) VALUES (
			@id, @position, @keyword, @universal,
			@float_filter, @percent_diff_filter, @price_filter,
			@created_at, @updated_at
		)`
)

// Notification history queries.
const (
	queryInsertNotifiedItem = `
		INSERT INTO notified_items (
			item_id, market_name, market_value, notification_type,
			matched_keyword, charm_name, charm_category, charm_price,
			percent_diff, notified_at
		) VALUES (
			@item_id, @market_name, @market_value, @notification_type,
			NULLIF(@matched_keyword, ''), NULLIF(@charm_name, ''), NULLIF(@charm_category, ''), @charm_price,
			@percent_diff, @notified_at
		)
		RETURNING id`
)

// Scheduler queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (job_name)
		VALUES ($1)
		RETURNING id`

	queryFinishJobRun = `
		UPDATE job_runs SET
			completed_at    = now(),
			status          = $2,
			error_text      = NULLIF($3, ''),
			items_processed = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), items_processed
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), items_processed
		FROM job_runs
		ORDER BY job_name, started_at DESC`

	queryMarkStaleJobRunsCrashed = `
		UPDATE job_runs SET
			status       = 'crashed',
			completed_at = now()
		WHERE status = 'running' AND started_at < $1`

	queryDeleteOldJobRuns = `
		DELETE FROM job_runs WHERE started_at < now() - interval '30 days'`
)
