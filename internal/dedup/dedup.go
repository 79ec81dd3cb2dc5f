// Package dedup tracks which item ids have already produced a notification,
// so repeated or overlapping feed events for the same listing emit at most
// once.
package dedup

import "sync"

// DefaultCapacity bounds the ledger when no explicit capacity is configured.
const DefaultCapacity = 1000

// Ledger is a bounded, insertion-ordered set of notified item ids. When an
// insert pushes the ledger past capacity, the oldest half is dropped in one
// sweep: approximate LRU with O(1) amortized inserts and no per-lookup
// bookkeeping.
//
// Eviction is memory management, not an un-notify. An evicted id that shows
// up again may be re-notified; that trade-off is accepted to keep a
// long-running process bounded.
type Ledger struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	order    []string
	capacity int
}

// New returns a Ledger holding at most capacity ids. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// HasNotified reports whether id has been recorded and not yet evicted.
func (l *Ledger) HasNotified(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.ids[id]
	return ok
}

// RecordNotified adds id to the ledger. Recording an id already present is
// a no-op and does not refresh its position.
func (l *Ledger) RecordNotified(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; ok {
		return
	}
	l.ids[id] = struct{}{}
	l.order = append(l.order, id)

	if len(l.order) <= l.capacity {
		return
	}
	drop := len(l.order) / 2
	for _, old := range l.order[:drop] {
		delete(l.ids, old)
	}
	// Copy so the evicted prefix does not pin the old backing array.
	l.order = append(make([]string, 0, len(l.order)-drop), l.order[drop:]...)
}

// Len returns the number of ids currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.order)
}
