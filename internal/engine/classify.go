// Package engine implements the core business logic: item classification
// against the active ruleset, batch processing, duplicate suppression, and
// notification delivery.
package engine

import (
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	"github.com/Sadat41/Empire-Enhanced-sub001/pkg/match"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// PercentProvider resolves a reference-price percent difference for an
// item. A nil result means no reference data is available.
type PercentProvider interface {
	PercentDifference(item *domain.Item) *float64
}

// Classify evaluates one item against a rule snapshot and returns the
// verdict. Paths are tried in priority order: specific keyword match, then
// keychain detection, then the universal fallback. A specific match is
// decisive either way — when its checks fail the item is rejected without
// trying the later paths. A keychain rejection is recorded but still lets a
// universal entry claim the item; a final rejection carries the most recent
// reason.
func Classify(
	item *domain.Item,
	snap *rules.Snapshot,
	table *charm.Table,
	pct PercentProvider,
) domain.MatchResult {
	// A listing that is itself a charm for sale never enters the keyword
	// scan, so an accessory-named listing cannot claim a keyword or
	// universal entry.
	isCharmListing := table.MatchesListingName(item.MarketName)

	var specific, universal *domain.TargetEntry
	if !isCharmListing {
		for i := range snap.Entries {
			e := &snap.Entries[i]
			if e.IsUniversal() {
				// Scanning keeps overwriting, so the last universal
				// entry is the candidate.
				universal = e
				continue
			}
			if match.MatchesKeyword(item.MarketName, e.Keyword) {
				specific = e
				break
			}
		}
	}

	if specific != nil {
		return evaluateEntry(item, specific, snap, pct, domain.MatchSpecificTarget)
	}

	result := classifyKeychain(item, snap, table, isCharmListing)
	if result.Accepted() {
		return result
	}
	reason := result.Reason

	if universal != nil {
		result = evaluateEntry(item, universal, snap, pct, domain.MatchUniversal)
		if result.Accepted() {
			return result
		}
		reason = result.Reason
	}

	return rejected(reason)
}

// evaluateEntry runs the shared checks for a keyword or universal entry:
// the price-deviation band, then the entry's sub-filters in a fixed order
// (float, percent difference, price). Every enabled sub-filter must pass.
func evaluateEntry(
	item *domain.Item,
	e *domain.TargetEntry,
	snap *rules.Snapshot,
	pct PercentProvider,
	category domain.MatchCategory,
) domain.MatchResult {
	dev := item.Deviation()
	if dev == nil || !snap.Band.Contains(*dev) {
		return rejected(domain.ReasonPriceBand)
	}

	if !e.Float.Match(item.Wear) {
		return rejected(domain.ReasonFloatFilter)
	}

	var resolved *float64
	if e.PercentDiff != nil && e.PercentDiff.Enabled {
		resolved = resolvePercentDiff(item, e, pct)
		if resolved == nil {
			return rejected(domain.ReasonPercentDiffUnavailable)
		}
		if !e.PercentDiff.Match(resolved) {
			return rejected(domain.ReasonPercentDiffFilter)
		}
	}

	if !e.Price.Match(item.PriceDollars()) {
		return rejected(domain.ReasonPriceFilter)
	}

	return domain.MatchResult{
		Category:    category,
		Entry:       e,
		PercentDiff: resolved,
	}
}

// resolvePercentDiff picks the percentage an enabled percent-diff filter
// compares against: the comparator's reference-derived value when the entry
// prefers it and one is available, otherwise the item's own deviation from
// the recommended price. Nil when neither source yields a value.
func resolvePercentDiff(
	item *domain.Item,
	e *domain.TargetEntry,
	pct PercentProvider,
) *float64 {
	if e.PercentDiff.UseReferencePrice && pct != nil {
		if v := pct.PercentDifference(item); v != nil {
			return v
		}
	}
	return item.Deviation()
}

// classifyKeychain evaluates the accessory path. The name safety checks run
// first so that a charm-for-sale listing or an item plainly covered by a
// target keyword is never classified off its accessories, whether or not it
// carries any.
func classifyKeychain(
	item *domain.Item,
	snap *rules.Snapshot,
	table *charm.Table,
	isCharmListing bool,
) domain.MatchResult {
	if isCharmListing {
		return rejected(domain.ReasonNameMatchesKeychain)
	}

	for i := range snap.Entries {
		e := &snap.Entries[i]
		if !e.IsUniversal() && match.ContainsKeyword(item.MarketName, e.Keyword) {
			return rejected(domain.ReasonMatchesTargetKeyword)
		}
	}

	if len(item.Keychains) == 0 {
		return rejected(domain.ReasonNoMatch)
	}

	c, ok := resolveAccessory(item.Keychains, table)
	if !ok {
		return rejected(domain.ReasonUnknownKeychain)
	}

	if !snap.KeychainEnabled(c.Name) {
		return rejected(domain.ReasonKeychainDisabled)
	}

	dev := item.Deviation()
	if dev == nil || !snap.Band.Contains(*dev) {
		return rejected(domain.ReasonPriceBand)
	}

	// A zero or negative listing price makes the charm ratio meaningless
	// (division yields ±Inf, which no JSON encoder will carry).
	price := item.PriceDollars()
	if price <= 0 {
		return rejected(domain.ReasonInvalidMarketValue)
	}

	percentage := c.Price / price * 100
	if percentage < snap.KeychainThreshold {
		return rejected(domain.ReasonKeychainPercentage)
	}

	return domain.MatchResult{
		Category:      domain.MatchKeychain,
		CharmName:     c.Name,
		CharmCategory: string(c.Category),
		CharmPrice:    c.Price,
		PercentDiff:   &percentage,
	}
}

// resolveAccessory returns the first attached accessory present in the
// price table.
func resolveAccessory(keychains []domain.Keychain, table *charm.Table) (charm.Charm, bool) {
	for _, k := range keychains {
		if c, ok := table.Lookup(k.Name); ok {
			return c, true
		}
	}
	return charm.Charm{}, false
}

func rejected(reason domain.RejectReason) domain.MatchResult {
	return domain.MatchResult{Category: domain.MatchRejected, Reason: reason}
}
