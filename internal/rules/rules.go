// Package rules holds the mutable matching configuration as immutable,
// versioned snapshots. Readers take the current snapshot once per item
// evaluation; writers replace whole values (band, threshold, enabled set,
// target list) and publish a new version atomically, so an in-flight
// evaluation never observes a half-applied change.
package rules

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/metrics"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// Defaults applied when no persisted settings exist yet.
const (
	DefaultBandMin           = -50.0
	DefaultBandMax           = 5.0
	DefaultKeychainThreshold = 50.0
)

// Snapshot is one immutable version of the full ruleset.
type Snapshot struct {
	Version           int64
	Band              domain.PriceBand
	KeychainThreshold float64
	EnabledKeychains  []string
	Entries           []domain.TargetEntry
	UpdatedAt         time.Time

	enabledSet map[string]struct{}
}

// KeychainEnabled reports whether the named charm is enabled, matching
// case-insensitively.
func (s *Snapshot) KeychainEnabled(name string) bool {
	_, ok := s.enabledSet[normalizeName(name)]
	return ok
}

// Store owns the current snapshot. Reads are lock-free; writers serialize.
type Store struct {
	table *charm.Table

	mu      sync.Mutex
	version int64
	current atomic.Pointer[Snapshot]
}

// NewStore returns a Store seeded with the defaults: the configured band and
// threshold constants, every charm in the table enabled, and an empty target
// list.
func NewStore(table *charm.Table) *Store {
	s := &Store{table: table}
	snap := &Snapshot{
		Version:           1,
		Band:              domain.PriceBand{Min: DefaultBandMin, Max: DefaultBandMax},
		KeychainThreshold: DefaultKeychainThreshold,
		EnabledKeychains:  table.Names(),
		UpdatedAt:         time.Now().UTC(),
	}
	snap.enabledSet = buildSet(snap.EnabledKeychains)
	s.version = 1
	s.current.Store(snap)
	metrics.RulesVersion.Set(1)
	return s
}

// Current returns the live snapshot. The returned value must be treated as
// read-only.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Load replaces the whole ruleset in one swap, used at startup to hydrate
// from persisted state.
func (s *Store) Load(settings domain.Settings, entries []domain.TargetEntry) (*Snapshot, error) {
	if err := errors.Join(
		ValidateBand(settings.Band.Min, settings.Band.Max),
		ValidateThreshold(settings.KeychainThreshold),
		s.ValidateKeychains(settings.EnabledKeychains),
		ValidateEntries(entries),
	); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publish(func(next *Snapshot) {
		next.Band = settings.Band
		next.KeychainThreshold = settings.KeychainThreshold
		next.EnabledKeychains = s.CanonicalKeychains(settings.EnabledKeychains)
		next.Entries = PrepareEntries(entries)
	}), nil
}

// ReplaceBand swaps in a new price-deviation band.
func (s *Store) ReplaceBand(min, max float64) (*Snapshot, error) {
	if err := ValidateBand(min, max); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publish(func(next *Snapshot) {
		next.Band = domain.PriceBand{Min: min, Max: max}
	}), nil
}

// ReplaceKeychainThreshold swaps in a new keychain percentage threshold.
func (s *Store) ReplaceKeychainThreshold(pct float64) (*Snapshot, error) {
	if err := ValidateThreshold(pct); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publish(func(next *Snapshot) {
		next.KeychainThreshold = pct
	}), nil
}

// ReplaceEnabledKeychains swaps in a new enabled set. Every name must exist
// in the charm table; names are stored in their canonical table form.
func (s *Store) ReplaceEnabledKeychains(names []string) (*Snapshot, error) {
	if err := s.ValidateKeychains(names); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publish(func(next *Snapshot) {
		next.EnabledKeychains = s.CanonicalKeychains(names)
	}), nil
}

// ReplaceEntries swaps in a new target list wholesale, preserving order.
// Entries without ids are assigned one.
func (s *Store) ReplaceEntries(entries []domain.TargetEntry) (*Snapshot, error) {
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publish(func(next *Snapshot) {
		next.Entries = PrepareEntries(entries)
	}), nil
}

// publish clones the current snapshot, applies mutate, bumps the version and
// stores the result. Callers hold s.mu.
func (s *Store) publish(mutate func(*Snapshot)) *Snapshot {
	cur := s.current.Load()
	s.version++

	next := &Snapshot{
		Version:           s.version,
		Band:              cur.Band,
		KeychainThreshold: cur.KeychainThreshold,
		EnabledKeychains:  cur.EnabledKeychains,
		Entries:           cur.Entries,
		UpdatedAt:         time.Now().UTC(),
	}
	mutate(next)
	next.enabledSet = buildSet(next.EnabledKeychains)
	s.current.Store(next)
	metrics.RulesVersion.Set(float64(next.Version))
	return next
}

// ValidateKeychains checks that every name resolves in the charm table.
func (s *Store) ValidateKeychains(names []string) error {
	var errs []error
	for _, n := range names {
		if !s.table.IsCharmName(n) {
			errs = append(errs, fmt.Errorf("unknown keychain %q", n))
		}
	}
	return errors.Join(errs...)
}

// CanonicalKeychains maps the given names onto their charm-table spelling,
// dropping duplicates while preserving first-seen order. Callers that
// persist an enabled set before publishing it canonicalize once up front so
// both sides agree.
func (s *Store) CanonicalKeychains(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, ok := s.table.Lookup(n)
		if !ok {
			continue
		}
		key := normalizeName(c.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c.Name)
	}
	return out
}

// ValidateEntries checks every target entry, collecting all problems rather
// than stopping at the first.
func ValidateEntries(entries []domain.TargetEntry) error {
	var errs []error
	for i := range entries {
		if err := validateEntry(&entries[i]); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func validateEntry(e *domain.TargetEntry) error {
	var errs []error

	if f := e.Float; f != nil && f.Enabled {
		switch {
		case math.IsNaN(f.Min) || math.IsNaN(f.Max):
			errs = append(errs, errors.New("float filter bounds must be numbers"))
		case f.Min > f.Max:
			errs = append(errs, fmt.Errorf("float filter min %v greater than max %v", f.Min, f.Max))
		case f.Min < 0 || f.Max > 1:
			errs = append(errs, fmt.Errorf("float filter bounds [%v, %v] outside [0, 1]", f.Min, f.Max))
		}
	}
	if f := e.PercentDiff; f != nil && f.Enabled {
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			errs = append(errs, fmt.Errorf("percent filter min %v greater than max %v", *f.Min, *f.Max))
		}
	}
	if f := e.Price; f != nil && f.Enabled {
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			errs = append(errs, fmt.Errorf("price filter min %v greater than max %v", *f.Min, *f.Max))
		}
	}
	return errors.Join(errs...)
}

// ValidateBand rejects NaN bounds and inverted bands.
func ValidateBand(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) {
		return errors.New("price band bounds must be numbers")
	}
	if min > max {
		return fmt.Errorf("price band min %v greater than max %v", min, max)
	}
	return nil
}

// ValidateThreshold rejects NaN and negative percentages.
func ValidateThreshold(pct float64) error {
	if math.IsNaN(pct) || pct < 0 {
		return fmt.Errorf("keychain threshold must be a non-negative percentage, got %v", pct)
	}
	return nil
}

// PrepareEntries returns a copy of entries with ids and timestamps assigned
// where missing. Callers that persist a list before publishing it assign ids
// once up front so both sides agree.
func PrepareEntries(entries []domain.TargetEntry) []domain.TargetEntry {
	out := make([]domain.TargetEntry, len(entries))
	copy(out, entries)
	now := time.Now().UTC()
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
		if out[i].CreatedAt.IsZero() {
			out[i].CreatedAt = now
		}
		out[i].UpdatedAt = now
	}
	return out
}

func buildSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[normalizeName(n)] = struct{}{}
	}
	return set
}

func normalizeName(name string) string {
	return charm.NormalizeName(name)
}
