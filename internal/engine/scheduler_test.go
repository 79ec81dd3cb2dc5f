package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// stubRefresher is a canned RefreshRunner.
type stubRefresher struct {
	entries int
	err     error
	calls   int
}

func (s *stubRefresher) Refresh(_ context.Context) (int, error) {
	s.calls++
	return s.entries, s.err
}

type finishedRun struct {
	id      string
	status  string
	errText string
	items   int
}

// recordingJobs is a test double for JobRecorder.
type recordingJobs struct {
	insertErr error
	finishErr error
	inserted  []string
	finished  []finishedRun
}

func (r *recordingJobs) InsertJobRun(_ context.Context, jobName string) (string, error) {
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.inserted = append(r.inserted, jobName)
	return "run-1", nil
}

func (r *recordingJobs) FinishJobRun(_ context.Context, id, status, errText string, items int) error {
	r.finished = append(r.finished, finishedRun{id, status, errText, items})
	return r.finishErr
}

func TestNewScheduler_RegistersCronEntry(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(&stubRefresher{}, &recordingJobs{}, time.Hour, quietLogger())
	require.NoError(t, err)

	assert.Len(t, sched.Entries(), 1)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(&stubRefresher{}, &recordingJobs{}, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}

func TestScheduler_TriggerRefresh(t *testing.T) {
	t.Parallel()

	fetcher := &stubRefresher{entries: 7}
	jobs := &recordingJobs{}
	sched, err := NewScheduler(fetcher, jobs, time.Hour, quietLogger())
	require.NoError(t, err)

	require.NoError(t, sched.TriggerRefresh(context.Background()))

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []string{domain.JobReferenceRefresh}, jobs.inserted)
}

func TestRunReferenceRefresh_Success(t *testing.T) {
	t.Parallel()

	fetcher := &stubRefresher{entries: 42}
	jobs := &recordingJobs{}

	err := RunReferenceRefresh(context.Background(), fetcher, jobs, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []string{domain.JobReferenceRefresh}, jobs.inserted)
	require.Len(t, jobs.finished, 1)
	assert.Equal(t, finishedRun{
		id:     "run-1",
		status: domain.JobStatusSucceeded,
		items:  42,
	}, jobs.finished[0])
}

func TestRunReferenceRefresh_Failure(t *testing.T) {
	t.Parallel()

	fetcher := &stubRefresher{err: errors.New("source returned 503")}
	jobs := &recordingJobs{}

	err := RunReferenceRefresh(context.Background(), fetcher, jobs, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refreshing reference table")

	require.Len(t, jobs.finished, 1)
	assert.Equal(t, domain.JobStatusFailed, jobs.finished[0].status)
	assert.Equal(t, "source returned 503", jobs.finished[0].errText)
}

func TestRunReferenceRefresh_BookkeepingFailureDoesNotMaskOutcome(t *testing.T) {
	t.Parallel()

	fetcher := &stubRefresher{entries: 7}
	jobs := &recordingJobs{insertErr: errors.New("db down")}

	err := RunReferenceRefresh(context.Background(), fetcher, jobs, quietLogger())
	require.NoError(t, err)

	// The refresh still ran; only the run row is missing.
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, jobs.finished)
}

func TestRunReferenceRefresh_FinishFailureIsLoggedOnly(t *testing.T) {
	t.Parallel()

	fetcher := &stubRefresher{entries: 7}
	jobs := &recordingJobs{finishErr: errors.New("db down")}

	err := RunReferenceRefresh(context.Background(), fetcher, jobs, quietLogger())
	require.NoError(t, err)
}
