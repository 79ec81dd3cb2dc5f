package engine

import (
	"context"
	"errors"
	"testing"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/dedup"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/metrics"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// captureNotifier records delivered notifications and can fail on demand.
type captureNotifier struct {
	sent  []domain.Notification
	err   error
	calls int
}

func (c *captureNotifier) SendNotification(_ context.Context, n *domain.Notification) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, *n)
	return nil
}

// captureHistory records persisted history rows and can fail on demand.
type captureHistory struct {
	rows []domain.NotifiedItem
	err  error
}

func (c *captureHistory) InsertNotifiedItem(_ context.Context, n *domain.NotifiedItem) error {
	if c.err != nil {
		return c.err
	}
	c.rows = append(c.rows, *n)
	return nil
}

func newTestRules(t *testing.T, entries []domain.TargetEntry) *rules.Store {
	t.Helper()
	s := rules.NewStore(charm.NewTable())
	if len(entries) > 0 {
		_, err := s.ReplaceEntries(entries)
		require.NoError(t, err)
	}
	return s
}

func newTestEngine(
	t *testing.T,
	entries []domain.TargetEntry,
	n *captureNotifier,
	h *captureHistory,
) *Engine {
	t.Helper()
	return NewEngine(
		newTestRules(t, entries),
		charm.NewTable(),
		nil,
		n,
		h,
		WithLogger(quietLogger()),
	)
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	eng := NewEngine(newTestRules(t, nil), charm.NewTable(), nil, &captureNotifier{}, &captureHistory{})
	assert.NotNil(t, eng.log)
	assert.NotNil(t, eng.ledger)
	assert.Equal(t, 0, eng.LedgerSize())
}

func TestNewEngine_WithOptions(t *testing.T) {
	t.Parallel()

	l := quietLogger()
	ledger := dedup.New(10)
	eng := NewEngine(
		newTestRules(t, nil),
		charm.NewTable(),
		nil,
		&captureNotifier{},
		&captureHistory{},
		WithLogger(l),
		WithLedger(ledger),
	)

	assert.Same(t, l, eng.log)
	assert.Same(t, ledger, eng.ledger)
}

func TestProcessBatch_SpecificMatch(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	history := &captureHistory{}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Keyword: "AK-47 | Redline"},
	}, notifier, history)

	err := eng.ProcessBatch(context.Background(), []domain.Item{
		feedItem("AK-47 | Redline"),
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, domain.NotificationTargetItem, n.NotificationType)
	require.NotNil(t, n.TargetItemMatched)
	assert.Equal(t, "AK-47 | Redline", n.TargetItemMatched.Keyword)
	assert.False(t, n.NotifiedAt.IsZero())

	require.Len(t, history.rows, 1)
	assert.Equal(t, "item-1", history.rows[0].ItemID)
	assert.Equal(t, "AK-47 | Redline", history.rows[0].MatchedKeyword)

	assert.Equal(t, 1, eng.LedgerSize())

	stats := eng.Stats()
	assert.Equal(t, int64(1), stats.ItemsProcessed)
	assert.Equal(t, int64(1), stats.SpecificMatches)
	assert.Equal(t, int64(1), stats.NotificationsSent)
	assert.Equal(t, int64(0), stats.Rejected)
}

func TestProcessBatch_KeychainMatch(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	history := &captureHistory{}
	eng := newTestEngine(t, nil, notifier, history)

	before := ptestutil.ToFloat64(metrics.MatchesTotal.WithLabelValues(string(domain.MatchKeychain)))

	err := eng.ProcessBatch(context.Background(), []domain.Item{
		charmedItem("Hot Howl", 10000),
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, domain.NotificationKeychain, n.NotificationType)
	assert.Equal(t, "Hot Howl", n.CharmName)
	assert.Equal(t, string(charm.CategoryRed), n.CharmCategory)
	require.NotNil(t, n.CharmPrice)
	assert.InDelta(t, 70.0, *n.CharmPrice, 0.001)
	assert.Equal(t, "$70.00", n.CharmPriceDisplay)
	require.NotNil(t, n.PercentDiff)
	assert.InDelta(t, 70.0, *n.PercentDiff, 0.001)
	assert.Nil(t, n.TargetItemMatched)

	require.Len(t, history.rows, 1)
	assert.Equal(t, "Hot Howl", history.rows[0].CharmName)
	assert.Empty(t, history.rows[0].MatchedKeyword)

	after := ptestutil.ToFloat64(metrics.MatchesTotal.WithLabelValues(string(domain.MatchKeychain)))
	assert.Equal(t, before+1, after)

	assert.Equal(t, int64(1), eng.Stats().KeychainMatches)
}

func TestProcessBatch_UniversalMatch(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	history := &captureHistory{}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Universal: true},
	}, notifier, history)

	err := eng.ProcessBatch(context.Background(), []domain.Item{
		feedItem("Desert Eagle | Printstream"),
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, domain.NotificationTargetItem, n.NotificationType)
	require.NotNil(t, n.TargetItemMatched)
	assert.True(t, n.TargetItemMatched.IsUniversal())

	// Universal matches record no keyword in history.
	require.Len(t, history.rows, 1)
	assert.Empty(t, history.rows[0].MatchedKeyword)

	assert.Equal(t, int64(1), eng.Stats().UniversalMatches)
}

func TestProcessBatch_RejectionCounted(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	eng := newTestEngine(t, nil, notifier, &captureHistory{})

	// An unrecognized accessory is the only source of this label in the
	// package, so the counter delta is safe under parallel tests.
	reason := string(domain.ReasonUnknownKeychain)
	before := ptestutil.ToFloat64(metrics.RejectionsTotal.WithLabelValues(reason))

	err := eng.ProcessBatch(context.Background(), []domain.Item{
		charmedItem("Totally Made Up", 10000),
	})
	require.NoError(t, err)

	assert.Zero(t, notifier.calls)
	assert.Equal(t, 0, eng.LedgerSize())

	stats := eng.Stats()
	assert.Equal(t, int64(1), stats.ItemsProcessed)
	assert.Equal(t, int64(1), stats.Rejected)

	after := ptestutil.ToFloat64(metrics.RejectionsTotal.WithLabelValues(reason))
	assert.Equal(t, before+1, after)
}

func TestProcessBatch_DuplicateSuppressed(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	history := &captureHistory{}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Keyword: "AK-47 | Redline"},
	}, notifier, history)

	item := feedItem("AK-47 | Redline")
	err := eng.ProcessBatch(context.Background(), []domain.Item{item, item})
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.calls)
	assert.Len(t, history.rows, 1)
	assert.Equal(t, 1, eng.LedgerSize())

	stats := eng.Stats()
	assert.Equal(t, int64(2), stats.ItemsProcessed)
	assert.Equal(t, int64(2), stats.SpecificMatches)
	assert.Equal(t, int64(1), stats.DuplicatesSuppressed)
	assert.Equal(t, int64(1), stats.NotificationsSent)
}

func TestProcessBatch_NotifierFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{err: errors.New("webhook down")}
	history := &captureHistory{}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Keyword: "AK-47 | Redline"},
	}, notifier, history)

	item := feedItem("AK-47 | Redline")

	err := eng.ProcessBatch(context.Background(), []domain.Item{item})
	require.NoError(t, err) // delivery failures never abort the batch

	assert.Equal(t, 1, notifier.calls)
	assert.Empty(t, history.rows)
	assert.Equal(t, 0, eng.LedgerSize(), "failed delivery must not be recorded")
	assert.Equal(t, int64(1), eng.Stats().NotificationsFailed)

	// The webhook recovers; the same id is still eligible.
	notifier.err = nil
	err = eng.ProcessBatch(context.Background(), []domain.Item{item})
	require.NoError(t, err)

	assert.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, eng.LedgerSize())
	assert.Equal(t, int64(1), eng.Stats().NotificationsSent)
}

func TestProcessBatch_HistoryFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	history := &captureHistory{err: errors.New("db down")}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Keyword: "AK-47 | Redline"},
	}, notifier, history)

	err := eng.ProcessBatch(context.Background(), []domain.Item{
		feedItem("AK-47 | Redline"),
	})
	require.NoError(t, err)

	// The notification went out and the ledger was updated; only the
	// history row is lost.
	assert.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, eng.LedgerSize())
	assert.Equal(t, int64(1), eng.Stats().NotificationsSent)
}

func TestProcessBatch_ContextCancelled(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Keyword: "AK-47 | Redline"},
	}, notifier, &captureHistory{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := eng.ProcessBatch(ctx, []domain.Item{feedItem("AK-47 | Redline")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, notifier.calls)
	assert.Equal(t, int64(0), eng.Stats().ItemsProcessed)
}

func TestProcessBatch_ArrayOrder(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	eng := newTestEngine(t, []domain.TargetEntry{
		{Keyword: "AK-47 | Redline"},
	}, notifier, &captureHistory{})

	first := feedItem("AK-47 | Redline")
	second := feedItem("AK-47 | Redline")
	second.ID = "item-9"

	err := eng.ProcessBatch(context.Background(), []domain.Item{first, second})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, domain.ItemID("item-1"), notifier.sent[0].ID)
	assert.Equal(t, domain.ItemID("item-9"), notifier.sent[1].ID)
}

func TestProcessBatch_SnapshotSwapMidStream(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	r := newTestRules(t, nil)
	eng := NewEngine(r, charm.NewTable(), nil, notifier, &captureHistory{}, WithLogger(quietLogger()))

	// No entries yet: nothing matches.
	err := eng.ProcessBatch(context.Background(), []domain.Item{feedItem("AK-47 | Redline")})
	require.NoError(t, err)
	assert.Zero(t, notifier.calls)

	// A rule replacement is picked up by the next batch without restarts.
	_, err = r.ReplaceEntries([]domain.TargetEntry{{Keyword: "AK-47 | Redline"}})
	require.NoError(t, err)

	err = eng.ProcessBatch(context.Background(), []domain.Item{feedItem("AK-47 | Redline")})
	require.NoError(t, err)
	assert.Len(t, notifier.sent, 1)
}

func TestHistoryRow_KeywordOnlyForSpecificMatches(t *testing.T) {
	t.Parallel()

	item := feedItem("AK-47 | Redline")

	specific := buildNotification(&item, &domain.MatchResult{
		Category: domain.MatchSpecificTarget,
		Entry:    &domain.TargetEntry{ID: "e1", Keyword: "AK-47 | Redline"},
	})
	assert.Equal(t, "AK-47 | Redline", historyRow(specific).MatchedKeyword)

	universal := buildNotification(&item, &domain.MatchResult{
		Category: domain.MatchUniversal,
		Entry:    &domain.TargetEntry{ID: "u1", Universal: true},
	})
	assert.Empty(t, historyRow(universal).MatchedKeyword)
}

func TestBuildNotification_KeychainFields(t *testing.T) {
	t.Parallel()

	pct := 70.0
	item := charmedItem("Hot Howl", 10000)
	n := buildNotification(&item, &domain.MatchResult{
		Category:      domain.MatchKeychain,
		CharmName:     "Hot Howl",
		CharmCategory: string(charm.CategoryRed),
		CharmPrice:    70.0,
		PercentDiff:   &pct,
	})

	assert.Equal(t, domain.NotificationKeychain, n.NotificationType)
	assert.Equal(t, "$70.00", n.CharmPriceDisplay)
	require.NotNil(t, n.CharmPrice)
	assert.InDelta(t, 70.0, *n.CharmPrice, 0.001)

	row := historyRow(n)
	assert.Equal(t, "Hot Howl", row.CharmName)
	assert.Equal(t, string(charm.CategoryRed), row.CharmCategory)
	require.NotNil(t, row.PercentDiff)
	assert.InDelta(t, 70.0, *row.PercentDiff, 0.001)
}
