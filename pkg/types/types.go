// Package domain defines the core business types for the empire feed monitor.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// MatchCategory identifies which classification path accepted an item.
type MatchCategory string

// Match category constants.
const (
	MatchRejected       MatchCategory = "rejected"
	MatchSpecificTarget MatchCategory = "specific_target"
	MatchKeychain       MatchCategory = "keychain"
	MatchUniversal      MatchCategory = "universal"
)

// NotificationType is the wire-level type tag on an emitted notification.
type NotificationType string

// Notification type constants.
const (
	NotificationTargetItem NotificationType = "target_item"
	NotificationKeychain   NotificationType = "keychain"
)

// RejectReason is the diagnostic label attached to a rejected item.
type RejectReason string

// Reject reason constants. Every rejection branch in the engine maps to
// exactly one of these; they double as Prometheus label values.
const (
	ReasonNoMatch                RejectReason = "no_match"
	ReasonPriceBand              RejectReason = "price_band"
	ReasonFloatFilter            RejectReason = "float_filter"
	ReasonPercentDiffFilter      RejectReason = "percent_diff_filter"
	ReasonPercentDiffUnavailable RejectReason = "percent_diff_unavailable"
	ReasonPriceFilter            RejectReason = "price_filter"
	ReasonInvalidMarketValue     RejectReason = "invalid_market_value"
	ReasonUnknownKeychain        RejectReason = "unknown_keychain"
	ReasonKeychainDisabled       RejectReason = "keychain_disabled"
	ReasonKeychainPercentage     RejectReason = "keychain_percentage"
	ReasonNameMatchesKeychain    RejectReason = "market_name_matches_keychain"
	ReasonMatchesTargetKeyword   RejectReason = "matches_target_keyword"
)

// Keychain is a charm accessory attached to a listed item.
type Keychain struct {
	Name string `json:"name"`
}

// ItemID is a listing identifier. The feed spells ids as either JSON
// strings or JSON numbers; both decode to the string form.
type ItemID string

func (id ItemID) String() string { return string(id) }

// UnmarshalJSON accepts both id spellings. Numbers keep their exact
// digits; decoding through json.Number avoids the float64 round-trip.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// Item is one marketplace listing event as delivered by the feed.
// Market values are integer minor-currency units (cents).
type Item struct {
	ID               ItemID     `json:"id"`
	MarketName       string     `json:"market_name"`
	MarketValue      int64      `json:"market_value"`
	PurchasePrice    *int64     `json:"purchase_price,omitempty"`
	AboveRecommended *float64   `json:"above_recommended_price,omitempty"`
	Wear             *float64   `json:"wear,omitempty"`
	Keychains        []Keychain `json:"keychains,omitempty"`
}

// PriceDollars returns the market value in whole currency units.
func (i *Item) PriceDollars() float64 {
	return float64(i.MarketValue) / 100
}

// Deviation returns the above-recommended percentage, or nil when the feed
// omitted it or delivered NaN.
func (i *Item) Deviation() *float64 {
	if i.AboveRecommended == nil || math.IsNaN(*i.AboveRecommended) {
		return nil
	}
	return i.AboveRecommended
}

// PriceBand bounds acceptable above-recommended deviations, inclusive on
// both ends. A band with Min > Max matches nothing.
type PriceBand struct {
	Min float64 `json:"min" db:"band_min"`
	Max float64 `json:"max" db:"band_max"`
}

// Contains reports whether deviation falls inside the band.
func (b PriceBand) Contains(deviation float64) bool {
	if math.IsNaN(deviation) {
		return false
	}
	return deviation >= b.Min && deviation <= b.Max
}

// FloatFilter bounds an item's wear value. Bounds are inclusive and live in
// [0, 1]. A nil or disabled filter passes everything.
type FloatFilter struct {
	Enabled bool    `json:"enabled"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Match reports whether wear satisfies the filter. An enabled filter
// rejects items without a wear value.
func (f *FloatFilter) Match(wear *float64) bool {
	if f == nil || !f.Enabled {
		return true
	}
	if wear == nil {
		return false
	}
	return *wear >= f.Min && *wear <= f.Max
}

// PercentDiffFilter bounds a percent-difference value. Either bound may be
// nil, meaning unbounded on that side. UseReferencePrice selects whether the
// comparator's reference-derived percentage is preferred over the item's own
// above-recommended deviation.
type PercentDiffFilter struct {
	Enabled           bool     `json:"enabled"`
	UseReferencePrice bool     `json:"use_reference_price,omitempty"`
	Min               *float64 `json:"min,omitempty"`
	Max               *float64 `json:"max,omitempty"`
}

// Match reports whether pct satisfies the filter. An enabled filter rejects
// when no percentage could be resolved at all.
func (f *PercentDiffFilter) Match(pct *float64) bool {
	if f == nil || !f.Enabled {
		return true
	}
	if pct == nil {
		return false
	}
	if f.Min != nil && *pct < *f.Min {
		return false
	}
	if f.Max != nil && *pct > *f.Max {
		return false
	}
	return true
}

// PriceFilter bounds an item's market price in whole currency units. Either
// bound may be nil, meaning unbounded on that side.
type PriceFilter struct {
	Enabled bool     `json:"enabled"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// Match reports whether priceDollars satisfies the filter.
func (f *PriceFilter) Match(priceDollars float64) bool {
	if f == nil || !f.Enabled {
		return true
	}
	if f.Min != nil && priceDollars < *f.Min {
		return false
	}
	if f.Max != nil && priceDollars > *f.Max {
		return false
	}
	return true
}

// TargetEntry is one element of the user's target list. An entry without a
// keyword (or with Universal set) matches any item and exists purely to
// apply its sub-filters platform-wide.
type TargetEntry struct {
	ID          string             `json:"id,omitempty"                  db:"id"`
	Keyword     string             `json:"keyword,omitempty"             db:"keyword"`
	Universal   bool               `json:"universal,omitempty"           db:"universal"`
	Float       *FloatFilter       `json:"float_filter,omitempty"        db:"float_filter"`
	PercentDiff *PercentDiffFilter `json:"percent_diff_filter,omitempty" db:"percent_diff_filter"`
	Price       *PriceFilter       `json:"price_filter,omitempty"        db:"price_filter"`
	CreatedAt   time.Time          `json:"created_at,omitempty"          db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at,omitempty"          db:"updated_at"`
}

// IsUniversal reports whether the entry is keyword-less.
func (e *TargetEntry) IsUniversal() bool {
	return e.Universal || strings.TrimSpace(e.Keyword) == ""
}

// Settings is the mutable rule configuration consumed by the engine,
// excluding the target list (which is replaced independently).
type Settings struct {
	Band              PriceBand `json:"price_band"`
	KeychainThreshold float64   `json:"keychain_threshold"`
	EnabledKeychains  []string  `json:"enabled_keychains"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MatchResult is the engine's verdict for a single item.
type MatchResult struct {
	Category MatchCategory `json:"category"`
	Reason   RejectReason  `json:"reason,omitempty"`

	// Specific / universal matches.
	Entry *TargetEntry `json:"entry,omitempty"`

	// Keychain matches.
	CharmName     string  `json:"charm_name,omitempty"`
	CharmCategory string  `json:"charm_category,omitempty"`
	CharmPrice    float64 `json:"charm_price,omitempty"`

	// Resolved percent difference, when a sub-filter computed one.
	PercentDiff *float64 `json:"percent_diff,omitempty"`
}

// Accepted reports whether the result represents a match.
func (r MatchResult) Accepted() bool {
	return r.Category != MatchRejected && r.Category != ""
}

// Notification is an accepted item augmented with match metadata, ready for
// delivery.
type Notification struct {
	Item

	NotificationType  NotificationType `json:"notification_type"`
	TargetItemMatched *TargetEntry     `json:"target_item_matched,omitempty"`
	CharmCategory     string           `json:"charm_category,omitempty"`
	CharmName         string           `json:"charm_name,omitempty"`
	CharmPrice        *float64         `json:"charm_price,omitempty"`
	CharmPriceDisplay string           `json:"charm_price_display,omitempty"`
	PercentDiff       *float64         `json:"percent_diff,omitempty"`
	NotifiedAt        time.Time        `json:"notified_at"`
}

// NotifiedItem is a persisted notification history row.
type NotifiedItem struct {
	ID               string           `json:"id"                        db:"id"`
	ItemID           string           `json:"item_id"                   db:"item_id"`
	MarketName       string           `json:"market_name"               db:"market_name"`
	MarketValue      int64            `json:"market_value"              db:"market_value"`
	NotificationType NotificationType `json:"notification_type"         db:"notification_type"`
	MatchedKeyword   string           `json:"matched_keyword,omitempty" db:"matched_keyword"`
	CharmName        string           `json:"charm_name,omitempty"      db:"charm_name"`
	CharmCategory    string           `json:"charm_category,omitempty"  db:"charm_category"`
	CharmPrice       *float64         `json:"charm_price,omitempty"     db:"charm_price"`
	PercentDiff      *float64         `json:"percent_diff,omitempty"    db:"percent_diff"`
	NotifiedAt       time.Time        `json:"notified_at"               db:"notified_at"`
}

// Job name constants.
const (
	JobReferenceRefresh = "reference_refresh"
	JobFeedSession      = "feed_session"
)

// Job status constants.
const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusCrashed   = "crashed"
)

// JobRun records a single execution of a scheduled or session-scoped job.
type JobRun struct {
	ID             string     `json:"id"                        db:"id"`
	JobName        string     `json:"job_name"                  db:"job_name"`
	StartedAt      time.Time  `json:"started_at"                db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"    db:"completed_at"`
	Status         string     `json:"status"                    db:"status"`
	ErrorText      string     `json:"error_text,omitempty"      db:"error_text"`
	ItemsProcessed *int       `json:"items_processed,omitempty" db:"items_processed"`
}

// EngineStats is a point-in-time snapshot of the engine's counters.
type EngineStats struct {
	ItemsProcessed       int64 `json:"items_processed"`
	SpecificMatches      int64 `json:"specific_matches"`
	KeychainMatches      int64 `json:"keychain_matches"`
	UniversalMatches     int64 `json:"universal_matches"`
	Rejected             int64 `json:"rejected"`
	DuplicatesSuppressed int64 `json:"duplicates_suppressed"`
	NotificationsSent    int64 `json:"notifications_sent"`
	NotificationsFailed  int64 `json:"notifications_failed"`
}
