package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// RefreshRunner refreshes the reference price table, returning the entry
// count of the new table.
type RefreshRunner interface {
	Refresh(ctx context.Context) (int, error)
}

// JobRecorder persists job run bookkeeping.
type JobRecorder interface {
	InsertJobRun(ctx context.Context, jobName string) (string, error)
	FinishJobRun(ctx context.Context, id, status, errText string, itemsProcessed int) error
}

// Scheduler manages the periodic reference-table refresh.
type Scheduler struct {
	cron    *cron.Cron
	fetcher RefreshRunner
	jobs    JobRecorder
	log     *slog.Logger
}

// NewScheduler creates a Scheduler that refreshes the reference table on a
// fixed interval.
func NewScheduler(
	fetcher RefreshRunner,
	jobs JobRecorder,
	refreshInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:    c,
		fetcher: fetcher,
		jobs:    jobs,
		log:     log,
	}

	if _, err := c.AddFunc(
		"@every "+refreshInterval.String(),
		s.runReferenceRefresh,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runReferenceRefresh() {
	ctx := context.Background()
	s.log.Info("scheduled reference refresh starting")
	if err := RunReferenceRefresh(ctx, s.fetcher, s.jobs, s.log); err != nil {
		s.log.Error("scheduled reference refresh failed", "error", err)
	}
}

// TriggerRefresh runs a reference refresh outside the cron schedule, for
// the manual trigger endpoint.
func (s *Scheduler) TriggerRefresh(ctx context.Context) error {
	return RunReferenceRefresh(ctx, s.fetcher, s.jobs, s.log)
}

// RunReferenceRefresh refreshes the reference table once, wrapping the
// attempt in a job run row. The cron schedule and the manual trigger
// endpoint both go through here so history looks the same either way.
// Bookkeeping failures are logged without masking the refresh outcome.
func RunReferenceRefresh(
	ctx context.Context,
	fetcher RefreshRunner,
	jobs JobRecorder,
	log *slog.Logger,
) error {
	runID, err := jobs.InsertJobRun(ctx, domain.JobReferenceRefresh)
	if err != nil {
		log.Error("recording job start failed",
			"job", domain.JobReferenceRefresh,
			"error", err,
		)
	}

	entries, refreshErr := fetcher.Refresh(ctx)

	if runID != "" {
		status := domain.JobStatusSucceeded
		errText := ""
		if refreshErr != nil {
			status = domain.JobStatusFailed
			errText = refreshErr.Error()
		}
		if err := jobs.FinishJobRun(ctx, runID, status, errText, entries); err != nil {
			log.Error("recording job finish failed",
				"job", domain.JobReferenceRefresh,
				"error", err,
			)
		}
	}

	if refreshErr != nil {
		return fmt.Errorf("refreshing reference table: %w", refreshErr)
	}

	return nil
}
