// Package selection tracks which catalog items the user has chosen for
// batch generation. Membership is independent of the current filter or page:
// an id stays selected even when it is filtered out of view. Every mutation
// is persisted so the set survives restarts.
package selection

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/auc-library-labs/scriptorium/internal/persist"
)

// Set is a durable set of item identifiers.
type Set struct {
	mu      sync.Mutex
	store   persist.Store
	ids     map[string]struct{}
	adopted map[string]struct{}
}

// NewSet creates an empty selection backed by store. Call Restore to pick up
// a previously persisted selection.
func NewSet(store persist.Store) *Set {
	return &Set{
		store:   store,
		ids:     make(map[string]struct{}),
		adopted: make(map[string]struct{}),
	}
}

// Restore loads the persisted selection. Missing or corrupt data yields an
// empty set; restore never fails.
func (s *Set) Restore() {
	var saved []string
	if !persist.LoadJSON(s.store, persist.KeySelectedItems, &saved) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{}, len(saved))
	for _, id := range saved {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
}

// Toggle adds id when absent and removes it when present, then persists.
// It reports whether the id is selected afterwards.
func (s *Set) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		s.persistLocked()
		return false
	}
	s.ids[id] = struct{}{}
	s.persistLocked()
	return true
}

// Remove drops id from the selection and persists.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	s.persistLocked()
}

// Clear empties the selection and its persisted form.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
	if err := s.store.Remove(persist.KeySelectedItems); err != nil {
		slog.Warn("Failed to clear persisted selection", "err", err)
	}
}

// AdoptFromQueryParam applies a "select this id" instruction carried by an
// external navigation. navToken identifies the navigation event; the
// instruction is applied at most once per token, so re-renders do not re-add
// an id the user has since removed.
func (s *Set) AdoptFromQueryParam(id, navToken string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.adopted[navToken]; done {
		return
	}
	s.adopted[navToken] = struct{}{}
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.persistLocked()
}

// Has reports whether id is selected.
func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len reports the number of selected ids.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Snapshot returns the selected ids sorted lexicographically. Batch runs
// iterate this order so processing is deterministic.
func (s *Set) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Set) sortedLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Set) persistLocked() {
	if err := persist.SaveJSON(s.store, persist.KeySelectedItems, s.sortedLocked()); err != nil {
		slog.Warn("Failed to persist selection", "err", err)
	}
}
