package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

func ptr[T any](v T) *T { return &v }

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() domain.Settings {
	return domain.Settings{
		Band:              domain.PriceBand{Min: -50, Max: 5},
		KeychainThreshold: 50,
		EnabledKeychains:  charm.NewTable().Names(),
	}
}

func newSnapshot(
	t *testing.T,
	settings domain.Settings,
	entries []domain.TargetEntry,
) *rules.Snapshot {
	t.Helper()
	s := rules.NewStore(charm.NewTable())
	snap, err := s.Load(settings, entries)
	require.NoError(t, err)
	return snap
}

func feedItem(name string) domain.Item {
	return domain.Item{
		ID:               "item-1",
		MarketName:       name,
		MarketValue:      3907,
		AboveRecommended: ptr(-4.7),
		Wear:             ptr(0.123),
	}
}

func charmedItem(charmName string, marketValue int64) domain.Item {
	return domain.Item{
		ID:               "item-2",
		MarketName:       "AWP | Atheris (Field-Tested)",
		MarketValue:      marketValue,
		AboveRecommended: ptr(-4.7),
		Keychains:        []domain.Keychain{{Name: charmName}},
	}
}

// stubPercent is a canned comparator.
type stubPercent struct {
	v *float64
}

func (s stubPercent) PercentDifference(_ *domain.Item) *float64 { return s.v }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		item         domain.Item
		settings     domain.Settings
		entries      []domain.TargetEntry
		pct          PercentProvider
		wantCategory domain.MatchCategory
		wantReason   domain.RejectReason
	}{
		{
			name:         "no entries and no accessories rejects with no match",
			item:         feedItem("AK-47 | Redline (Field-Tested)"),
			settings:     testSettings(),
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonNoMatch,
		},
		{
			name:     "exact keyword match accepts as specific target",
			item:     feedItem("AK-47 | Redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | Redline"},
			},
			wantCategory: domain.MatchSpecificTarget,
		},
		{
			name:     "keyword match is case insensitive",
			item:     feedItem("ak-47 | redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | REDLINE"},
			},
			wantCategory: domain.MatchSpecificTarget,
		},
		{
			name:     "substantial keyword substring matches",
			item:     feedItem("StatTrak AK-47 | Redline (Field-Tested)"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | Redline (Field-Tested)"},
			},
			wantCategory: domain.MatchSpecificTarget,
		},
		{
			name:     "item name as substantial substring of keyword matches",
			item:     feedItem("AK-47 | Redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | Redline (FT)"},
			},
			wantCategory: domain.MatchSpecificTarget,
		},
		{
			name:     "short generic keyword is rejected off the keychain safety check",
			item:     feedItem("StatTrak AK-47 | Redline (Field-Tested)"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47"},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonMatchesTargetKeyword,
		},
		{
			name: "specific match outside price band rejects",
			item: domain.Item{
				ID:               "i",
				MarketName:       "AK-47 | Redline",
				MarketValue:      3907,
				AboveRecommended: ptr(12.0),
			},
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | Redline"},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonPriceBand,
		},
		{
			name:     "missing deviation rejects at the band check",
			item:     domain.Item{ID: "i", MarketName: "AK-47 | Redline", MarketValue: 3907},
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | Redline"},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonPriceBand,
		},
		{
			name: "band bounds are inclusive",
			item: domain.Item{
				ID:               "i",
				MarketName:       "AK-47 | Redline",
				MarketValue:      3907,
				AboveRecommended: ptr(5.0),
			},
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{Keyword: "AK-47 | Redline"},
			},
			wantCategory: domain.MatchSpecificTarget,
		},
		{
			name:     "enabled float filter rejects out-of-range wear",
			item:     feedItem("AK-47 | Redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{
					Keyword: "AK-47 | Redline",
					Float:   &domain.FloatFilter{Enabled: true, Min: 0, Max: 0.08},
				},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonFloatFilter,
		},
		{
			name: "enabled float filter rejects missing wear",
			item: domain.Item{
				ID:               "i",
				MarketName:       "AK-47 | Redline",
				MarketValue:      3907,
				AboveRecommended: ptr(-4.7),
			},
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{
					Keyword: "AK-47 | Redline",
					Float:   &domain.FloatFilter{Enabled: true, Min: 0, Max: 1},
				},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonFloatFilter,
		},
		{
			name:     "enabled price filter rejects a cheap item",
			item:     feedItem("AK-47 | Redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{
					Keyword: "AK-47 | Redline",
					Price:   &domain.PriceFilter{Enabled: true, Min: ptr(200.0)},
				},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonPriceFilter,
		},
		{
			name:     "percent diff filter uses comparator when preferred",
			item:     feedItem("AK-47 | Redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{
					Keyword: "AK-47 | Redline",
					PercentDiff: &domain.PercentDiffFilter{
						Enabled:           true,
						UseReferencePrice: true,
						Min:               ptr(90.0),
					},
				},
			},
			pct:          stubPercent{v: ptr(120.0)},
			wantCategory: domain.MatchSpecificTarget,
		},
		{
			name:     "percent diff filter falls back to item deviation",
			item:     feedItem("AK-47 | Redline"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{
					Keyword: "AK-47 | Redline",
					PercentDiff: &domain.PercentDiffFilter{
						Enabled:           true,
						UseReferencePrice: true,
						Min:               ptr(90.0),
					},
				},
			},
			pct:          stubPercent{},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonPercentDiffFilter,
		},
		{
			name:         "known accessory above threshold accepts as keychain",
			item:         charmedItem("Hot Howl", 10000),
			settings:     testSettings(),
			wantCategory: domain.MatchKeychain,
		},
		{
			name: "keychain percentage below threshold rejects",
			item: charmedItem("Hot Howl", 10000),
			settings: domain.Settings{
				Band:              domain.PriceBand{Min: -50, Max: 5},
				KeychainThreshold: 80,
				EnabledKeychains:  charm.NewTable().Names(),
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonKeychainPercentage,
		},
		{
			name:         "unknown accessory rejects explicitly",
			item:         charmedItem("Totally Made Up", 10000),
			settings:     testSettings(),
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonUnknownKeychain,
		},
		{
			name: "accessory outside the enabled set rejects",
			item: charmedItem("Hot Howl", 10000),
			settings: domain.Settings{
				Band:              domain.PriceBand{Min: -50, Max: 5},
				KeychainThreshold: 50,
				EnabledKeychains:  []string{"Baby Karat T"},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonKeychainDisabled,
		},
		{
			name: "keychain path applies the price band",
			item: domain.Item{
				ID:               "i",
				MarketName:       "AWP | Atheris (Field-Tested)",
				MarketValue:      10000,
				AboveRecommended: ptr(12.0),
				Keychains:        []domain.Keychain{{Name: "Hot Howl"}},
			},
			settings:     testSettings(),
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonPriceBand,
		},
		{
			name:         "charm-named listing is rejected without keyword matching",
			item:         feedItem("Hot Howl"),
			settings:     testSettings(),
			entries:      []domain.TargetEntry{{Keyword: "Hot Howl"}},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonNameMatchesKeychain,
		},
		{
			name:         "charm listing with marketplace prefix is rejected",
			item:         feedItem("Charm | Hot Howl"),
			settings:     testSettings(),
			entries:      []domain.TargetEntry{{Universal: true}},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonNameMatchesKeychain,
		},
		{
			name:         "universal entry claims an otherwise unmatched item",
			item:         feedItem("Desert Eagle | Printstream (Minimal Wear)"),
			settings:     testSettings(),
			entries:      []domain.TargetEntry{{Universal: true}},
			wantCategory: domain.MatchUniversal,
		},
		{
			name:     "universal entry failure carries its reason",
			item:     feedItem("Desert Eagle | Printstream (Minimal Wear)"),
			settings: testSettings(),
			entries: []domain.TargetEntry{
				{
					Universal: true,
					Price:     &domain.PriceFilter{Enabled: true, Min: ptr(500.0)},
				},
			},
			wantCategory: domain.MatchRejected,
			wantReason:   domain.ReasonPriceFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := newSnapshot(t, tt.settings, tt.entries)

			res := Classify(&tt.item, snap, charm.NewTable(), tt.pct)

			assert.Equal(t, tt.wantCategory, res.Category)
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestClassify_FirstSpecificEntryWins(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(t, testSettings(), []domain.TargetEntry{
		{ID: "e1", Keyword: "AK-47 | Redline"},
		{ID: "e2", Keyword: "AK-47 | Redline"},
	})
	item := feedItem("AK-47 | Redline")

	res := Classify(&item, snap, charm.NewTable(), nil)

	require.Equal(t, domain.MatchSpecificTarget, res.Category)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "e1", res.Entry.ID)
}

func TestClassify_LastUniversalEntryWins(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(t, testSettings(), []domain.TargetEntry{
		{ID: "u1", Universal: true},
		{ID: "u2", Universal: true},
	})
	item := feedItem("Desert Eagle | Printstream")

	res := Classify(&item, snap, charm.NewTable(), nil)

	require.Equal(t, domain.MatchUniversal, res.Category)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "u2", res.Entry.ID)
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	// Same item, same snapshot, same table: the verdict must not drift
	// between calls.
	snap := newSnapshot(t, testSettings(), []domain.TargetEntry{
		{
			ID:          "e1",
			Keyword:     "AK-47 | Redline",
			PercentDiff: &domain.PercentDiffFilter{Enabled: true, UseReferencePrice: true, Min: ptr(100.0)},
		},
	})
	item := feedItem("AK-47 | Redline")
	item.Keychains = []domain.Keychain{{Name: "Hot Howl"}}
	table := charm.NewTable()
	pct := stubPercent{v: ptr(135.0)}

	first := Classify(&item, snap, table, pct)
	second := Classify(&item, snap, table, pct)

	require.Equal(t, domain.MatchSpecificTarget, first.Category)
	assert.Equal(t, first, second)
}

func TestClassify_SpecificBeatsPassingKeychain(t *testing.T) {
	t.Parallel()

	// The item both exactly matches a target keyword and carries an
	// enabled keychain clearing the threshold (Hot Howl at 179% of a $39
	// item). The specific match wins the priority race.
	snap := newSnapshot(t, testSettings(), []domain.TargetEntry{
		{ID: "e1", Keyword: "AK-47 | Redline"},
	})
	item := feedItem("AK-47 | Redline")
	item.Keychains = []domain.Keychain{{Name: "Hot Howl"}}

	res := Classify(&item, snap, charm.NewTable(), nil)

	require.Equal(t, domain.MatchSpecificTarget, res.Category)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "e1", res.Entry.ID)
	assert.Empty(t, res.CharmName)
}

func TestClassify_KeychainRejectsNonPositiveMarketValue(t *testing.T) {
	t.Parallel()

	// Without the guard a zero-value listing divides to +Inf and sails
	// past any threshold.
	snap := newSnapshot(t, testSettings(), nil)
	item := charmedItem("Hot Howl", 0)

	res := Classify(&item, snap, charm.NewTable(), nil)

	assert.Equal(t, domain.MatchRejected, res.Category)
	assert.Equal(t, domain.ReasonInvalidMarketValue, res.Reason)
}

func TestClassify_SpecificFailureIsTerminal(t *testing.T) {
	t.Parallel()

	// The item would pass as a keychain match (Hot Howl at 179% of a $39
	// item) and a bare universal entry would also take it, but the failed
	// specific match wins the priority race and rejects.
	snap := newSnapshot(t, testSettings(), []domain.TargetEntry{
		{
			Keyword: "AK-47 | Redline",
			Price:   &domain.PriceFilter{Enabled: true, Min: ptr(200.0)},
		},
		{Universal: true},
	})
	item := feedItem("AK-47 | Redline")
	item.Keychains = []domain.Keychain{{Name: "Hot Howl"}}

	res := Classify(&item, snap, charm.NewTable(), nil)

	assert.Equal(t, domain.MatchRejected, res.Category)
	assert.Equal(t, domain.ReasonPriceFilter, res.Reason)
}

func TestClassify_KeychainRejectionFallsThroughToUniversal(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.KeychainThreshold = 80 // Hot Howl on a $100 item yields 70%

	snap := newSnapshot(t, settings, []domain.TargetEntry{
		{ID: "u1", Universal: true},
	})
	item := charmedItem("Hot Howl", 10000)

	res := Classify(&item, snap, charm.NewTable(), nil)

	require.Equal(t, domain.MatchUniversal, res.Category)
	assert.Equal(t, "u1", res.Entry.ID)
}

func TestClassify_UniversalFailureOverwritesKeychainReason(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.KeychainThreshold = 80

	snap := newSnapshot(t, settings, []domain.TargetEntry{
		{
			Universal: true,
			Float:     &domain.FloatFilter{Enabled: true, Min: 0, Max: 1},
		},
	})
	item := charmedItem("Hot Howl", 10000) // no wear value

	res := Classify(&item, snap, charm.NewTable(), nil)

	assert.Equal(t, domain.MatchRejected, res.Category)
	assert.Equal(t, domain.ReasonFloatFilter, res.Reason)
}

func TestClassify_KeychainMatchMetadata(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(t, testSettings(), nil)
	item := charmedItem("Hot Howl", 10000)

	res := Classify(&item, snap, charm.NewTable(), nil)

	require.Equal(t, domain.MatchKeychain, res.Category)
	assert.Equal(t, "Hot Howl", res.CharmName)
	assert.Equal(t, string(charm.CategoryRed), res.CharmCategory)
	assert.InDelta(t, 70.0, res.CharmPrice, 0.001)
	require.NotNil(t, res.PercentDiff)
	assert.InDelta(t, 70.0, *res.PercentDiff, 0.001) // 70 / (10000/100) * 100
}

func TestClassify_AccessoryLookupTakesFirstResolved(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(t, testSettings(), nil)
	item := charmedItem("Hot Howl", 10000)
	item.Keychains = []domain.Keychain{
		{Name: "Unknown Trinket"},
		{Name: "Hot Howl"},
	}

	res := Classify(&item, snap, charm.NewTable(), nil)

	require.Equal(t, domain.MatchKeychain, res.Category)
	assert.Equal(t, "Hot Howl", res.CharmName)
}

func TestClassify_PercentDiffCarriedOnAccept(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(t, testSettings(), []domain.TargetEntry{
		{
			Keyword: "AK-47 | Redline",
			PercentDiff: &domain.PercentDiffFilter{
				Enabled:           true,
				UseReferencePrice: true,
				Min:               ptr(90.0),
			},
		},
	})
	item := feedItem("AK-47 | Redline")

	res := Classify(&item, snap, charm.NewTable(), stubPercent{v: ptr(120.0)})

	require.Equal(t, domain.MatchSpecificTarget, res.Category)
	require.NotNil(t, res.PercentDiff)
	assert.InDelta(t, 120.0, *res.PercentDiff, 0.001)
}
