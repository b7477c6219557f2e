// Package table holds the authoritative mapping from container identity to
// publication state. It is volatile: rebuilt from the live container list on
// every daemon start, never persisted.
package table

import (
	"sync"

	"github.com/localpub/localpub/internal/domain"
)

// State is the publication lifecycle position of one container.
type State int

const (
	Unpublished State = iota
	Publishing
	Published
	Unpublishing
)

func (s State) String() string {
	switch s {
	case Unpublished:
		return "unpublished"
	case Publishing:
		return "publishing"
	case Published:
		return "published"
	case Unpublishing:
		return "unpublishing"
	default:
		return "unknown"
	}
}

// Entry pairs a state with the record it refers to. Record is nil only in
// the Unpublished state.
type Entry struct {
	State  State
	Record *domain.ServiceRecord
}

// Table maps container IDs to publication entries.
//
// The reconciliation engine is the single writer; the mutex exists so
// read-only snapshots (ops endpoints) can be taken while the engine runs.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func New() *Table {
	return &Table{
		entries: make(map[string]Entry),
	}
}

// Get retrieves the entry for a container.
func (t *Table) Get(id string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[id]
	return e, ok
}

// Put sets the entry for a container, overwriting any previous state.
func (t *Table) Put(id string, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[id] = e
}

// Remove deletes the entry for a container.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, id)
}

// All returns a snapshot copy of the table.
func (t *Table) All() map[string]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Entry, len(t.entries))
	for id, e := range t.entries {
		out[id] = e
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// CompareAndTransition moves a container to next only if it currently sits
// in the expected state. Returns false, leaving the table untouched, when an
// overlapping event already moved the entry elsewhere.
func (t *Table) CompareAndTransition(id string, expect State, next Entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.entries[id]
	if !ok || cur.State != expect {
		return false
	}
	t.entries[id] = next
	return true
}

// Claimant returns the container currently publishing (or about to publish)
// the given instance/type pair, excluding excludeID. Backs the invariant that
// at most one holder exists per pair.
func (t *Table) Claimant(instance, service, excludeID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for id, e := range t.entries {
		if id == excludeID || e.Record == nil {
			continue
		}
		if e.State != Publishing && e.State != Published {
			continue
		}
		if e.Record.Instance == instance && e.Record.Service == service {
			return id, true
		}
	}
	return "", false
}
