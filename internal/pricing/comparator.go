// Package pricing computes reference-price percent differences for feed
// items and maintains the cached reference table they are computed from.
package pricing

import (
	"log/slog"
	"regexp"
	"strings"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// ReferenceEntry is one reference-table row: a price for the name itself
// and, for multi-variant cosmetics, per-variant prices keyed by the
// title-cased variant token ("Sapphire", "Phase 2", ...).
type ReferenceEntry struct {
	Price    float64            `json:"price"`
	Variants map[string]float64 `json:"variants,omitempty"`
}

// Table maps lowercased normalized market names to reference entries.
type Table map[string]ReferenceEntry

// TableProvider supplies the current reference table. Implementations
// return possibly-stale or empty data, never an error.
type TableProvider interface {
	Table() Table
}

// variantMarkers flag names that price by visual variant rather than by the
// base name alone. Checked case-insensitively as substrings.
var variantMarkers = []string{"doppler", "ruby", "sapphire", "emerald", "black pearl"}

// variantTokenRE extracts the trailing variant token from a market name.
var variantTokenRE = regexp.MustCompile(`(?i)(ruby|sapphire|emerald|black pearl|phase [1-4])\s*$`)

// Comparator resolves an item's reference price and expresses it as a
// percentage of the item's own price.
type Comparator struct {
	source TableProvider
	log    *slog.Logger
}

// ComparatorOption configures the Comparator.
type ComparatorOption func(*Comparator)

// WithComparatorLogger sets the logger.
func WithComparatorLogger(log *slog.Logger) ComparatorOption {
	return func(c *Comparator) {
		c.log = log
	}
}

// NewComparator builds a Comparator reading from source.
func NewComparator(source TableProvider, opts ...ComparatorOption) *Comparator {
	c := &Comparator{
		source: source,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PercentDifference returns (referencePrice / itemPriceDollars) × 100, or
// nil when no reference price applies: unknown name, missing variant, empty
// table, or a non-positive price on either side. Lookup misses are the
// normal case and are reported only at debug level.
func (c *Comparator) PercentDifference(item *domain.Item) *float64 {
	table := c.source.Table()
	if len(table) == 0 {
		return nil
	}

	name := NormalizeMarketName(item.MarketName)
	refPrice, ok := c.lookup(table, name)
	if !ok {
		c.log.Debug("no reference price", "market_name", item.MarketName)
		return nil
	}

	empirePrice := item.PriceDollars()
	if refPrice <= 0 || empirePrice <= 0 {
		return nil
	}

	pct := refPrice / empirePrice * 100
	return &pct
}

func (c *Comparator) lookup(table Table, name string) (float64, bool) {
	if isVariantName(name) {
		token, base := splitVariant(name)
		if token == "" {
			return 0, false
		}
		entry, ok := table[strings.ToLower(base)]
		if !ok {
			return 0, false
		}
		// No fallback to the plain price: a variant item priced off its
		// base name would be wildly wrong for gems and low phases.
		price, ok := entry.Variants[token]
		return price, ok
	}

	entry, ok := table[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return entry.Price, true
}

// NormalizeMarketName collapses whitespace runs to single spaces and makes
// sure a leading rarity star is followed by a space, matching how the
// reference source spells names.
func NormalizeMarketName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if rest, ok := strings.CutPrefix(collapsed, "★"); ok && !strings.HasPrefix(rest, " ") && rest != "" {
		collapsed = "★ " + rest
	}
	return collapsed
}

func isVariantName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range variantMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// splitVariant extracts the title-cased trailing variant token and the base
// name with the token and any trailing separator removed. An empty token
// means the name carries a variant marker but no recognizable trailing
// token, which makes a variant lookup impossible.
func splitVariant(name string) (token, base string) {
	loc := variantTokenRE.FindStringIndex(name)
	if loc == nil {
		return "", name
	}
	token = titleCaseToken(strings.TrimSpace(name[loc[0]:]))
	base = strings.TrimRight(name[:loc[0]], " -|")
	return token, base
}

// titleCaseToken capitalizes each word of a variant token: "black pearl" →
// "Black Pearl", "phase 2" → "Phase 2".
func titleCaseToken(token string) string {
	words := strings.Fields(strings.ToLower(token))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
