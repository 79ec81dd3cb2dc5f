package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPriceBand_Contains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		band      PriceBand
		deviation float64
		want      bool
	}{
		{name: "inside band", band: PriceBand{Min: -50, Max: 5}, deviation: -4.7, want: true},
		{name: "at min bound", band: PriceBand{Min: -50, Max: 5}, deviation: -50, want: true},
		{name: "at max bound", band: PriceBand{Min: -50, Max: 5}, deviation: 5, want: true},
		{name: "below min", band: PriceBand{Min: -50, Max: 5}, deviation: -50.01, want: false},
		{name: "above max", band: PriceBand{Min: -50, Max: 5}, deviation: 5.01, want: false},
		{name: "NaN deviation", band: PriceBand{Min: -50, Max: 5}, deviation: math.NaN(), want: false},
		{name: "zero-width band hit", band: PriceBand{Min: 0, Max: 0}, deviation: 0, want: true},
		{name: "inverted band rejects inside value", band: PriceBand{Min: 5, Max: -50}, deviation: 0, want: false},
		{name: "inverted band rejects its own min", band: PriceBand{Min: 5, Max: -50}, deviation: 5, want: false},
		{name: "inverted band rejects its own max", band: PriceBand{Min: 5, Max: -50}, deviation: -50, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.band.Contains(tt.deviation))
		})
	}
}

func TestFloatFilter_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter *FloatFilter
		wear   *float64
		want   bool
	}{
		{name: "nil filter passes", filter: nil, wear: nil, want: true},
		{name: "disabled filter passes missing wear", filter: &FloatFilter{Min: 0, Max: 0.1}, wear: nil, want: true},
		{name: "enabled filter rejects missing wear", filter: &FloatFilter{Enabled: true, Min: 0, Max: 1}, wear: nil, want: false},
		{name: "inside range", filter: &FloatFilter{Enabled: true, Min: 0.1, Max: 0.2}, wear: ptr(0.15), want: true},
		{name: "at min", filter: &FloatFilter{Enabled: true, Min: 0.1, Max: 0.2}, wear: ptr(0.1), want: true},
		{name: "at max", filter: &FloatFilter{Enabled: true, Min: 0.1, Max: 0.2}, wear: ptr(0.2), want: true},
		{name: "below min", filter: &FloatFilter{Enabled: true, Min: 0.1, Max: 0.2}, wear: ptr(0.0999), want: false},
		{name: "above max", filter: &FloatFilter{Enabled: true, Min: 0.1, Max: 0.2}, wear: ptr(0.2001), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filter.Match(tt.wear))
		})
	}
}

func TestPercentDiffFilter_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter *PercentDiffFilter
		pct    *float64
		want   bool
	}{
		{name: "nil filter passes", filter: nil, pct: nil, want: true},
		{name: "disabled passes without value", filter: &PercentDiffFilter{Min: ptr(10.0)}, pct: nil, want: true},
		{name: "enabled rejects without value", filter: &PercentDiffFilter{Enabled: true}, pct: nil, want: false},
		{name: "unbounded passes any value", filter: &PercentDiffFilter{Enabled: true}, pct: ptr(-999.0), want: true},
		{name: "min only below", filter: &PercentDiffFilter{Enabled: true, Min: ptr(80.0)}, pct: ptr(79.9), want: false},
		{name: "min only at bound", filter: &PercentDiffFilter{Enabled: true, Min: ptr(80.0)}, pct: ptr(80.0), want: true},
		{name: "max only above", filter: &PercentDiffFilter{Enabled: true, Max: ptr(120.0)}, pct: ptr(120.1), want: false},
		{name: "max only at bound", filter: &PercentDiffFilter{Enabled: true, Max: ptr(120.0)}, pct: ptr(120.0), want: true},
		{name: "both bounds inside", filter: &PercentDiffFilter{Enabled: true, Min: ptr(80.0), Max: ptr(120.0)}, pct: ptr(100.0), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filter.Match(tt.pct))
		})
	}
}

func TestPriceFilter_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter *PriceFilter
		price  float64
		want   bool
	}{
		{name: "nil filter passes", filter: nil, price: 10, want: true},
		{name: "disabled passes", filter: &PriceFilter{Min: ptr(100.0)}, price: 10, want: true},
		{name: "min only below", filter: &PriceFilter{Enabled: true, Min: ptr(5.0)}, price: 4.99, want: false},
		{name: "min only at bound", filter: &PriceFilter{Enabled: true, Min: ptr(5.0)}, price: 5, want: true},
		{name: "max only above", filter: &PriceFilter{Enabled: true, Max: ptr(50.0)}, price: 50.01, want: false},
		{name: "both bounds inside", filter: &PriceFilter{Enabled: true, Min: ptr(5.0), Max: ptr(50.0)}, price: 39.07, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filter.Match(tt.price))
		})
	}
}

func TestItemID_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    ItemID
		wantErr bool
	}{
		{name: "string id", payload: `{"id":"item-1","market_name":"x","market_value":100}`, want: "item-1"},
		{name: "numeric id", payload: `{"id":12345,"market_name":"x","market_value":100}`, want: "12345"},
		{name: "large numeric id keeps digits", payload: `{"id":9007199254740993,"market_name":"x","market_value":100}`, want: "9007199254740993"},
		{name: "null id", payload: `{"id":null,"market_name":"x","market_value":100}`, want: ""},
		{name: "object id rejected", payload: `{"id":{},"market_name":"x","market_value":100}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var item Item
			err := json.Unmarshal([]byte(tt.payload), &item)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.ID)
		})
	}
}

func TestItem_Deviation(t *testing.T) {
	t.Parallel()

	missing := Item{MarketValue: 3907}
	assert.Nil(t, missing.Deviation())

	nan := Item{MarketValue: 3907, AboveRecommended: ptr(math.NaN())}
	assert.Nil(t, nan.Deviation())

	present := Item{MarketValue: 3907, AboveRecommended: ptr(-4.7)}
	if assert.NotNil(t, present.Deviation()) {
		assert.Equal(t, -4.7, *present.Deviation())
	}
}

func TestItem_PriceDollars(t *testing.T) {
	t.Parallel()

	i := Item{MarketValue: 3907}
	assert.InDelta(t, 39.07, i.PriceDollars(), 0.0001)
}

func TestTargetEntry_IsUniversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry TargetEntry
		want  bool
	}{
		{name: "explicit flag", entry: TargetEntry{Universal: true, Keyword: "AK-47"}, want: true},
		{name: "empty keyword", entry: TargetEntry{}, want: true},
		{name: "whitespace keyword", entry: TargetEntry{Keyword: "   "}, want: true},
		{name: "keyword set", entry: TargetEntry{Keyword: "AK-47 | Redline"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.entry.IsUniversal())
		})
	}
}

func TestMatchResult_Accepted(t *testing.T) {
	t.Parallel()

	assert.False(t, MatchResult{}.Accepted())
	assert.False(t, MatchResult{Category: MatchRejected, Reason: ReasonNoMatch}.Accepted())
	assert.True(t, MatchResult{Category: MatchSpecificTarget}.Accepted())
	assert.True(t, MatchResult{Category: MatchKeychain}.Accepted())
	assert.True(t, MatchResult{Category: MatchUniversal}.Accepted())
}
