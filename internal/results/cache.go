// Package results holds the durable record of the last batch run: one entry
// per processed item, persisted after every append so a restart shows
// partial progress instead of an empty screen.
package results

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/auc-library-labs/scriptorium/internal/models"
	"github.com/auc-library-labs/scriptorium/internal/persist"
)

// Cache is the durable list of batch outcomes.
type Cache struct {
	mu      sync.Mutex
	store   persist.Store
	entries []models.BatchResultEntry
}

// NewCache creates an empty cache backed by store. Call Restore to pick up
// the last persisted batch.
func NewCache(store persist.Store) *Cache {
	return &Cache{store: store}
}

// Restore loads the last persisted batch results. Best effort: missing or
// corrupt data yields an empty cache.
func (c *Cache) Restore() {
	var saved []models.BatchResultEntry
	if !persist.LoadJSON(c.store, persist.KeyBatchResults, &saved) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = saved
}

// Append records one more outcome and persists the full list.
func (c *Cache) Append(entry models.BatchResultEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	c.persistLocked()
}

// Replace swaps the outcome at index, leaving the item snapshot untouched.
// Regeneration is the only caller.
func (c *Cache) Replace(index int, result *models.ScriptResult, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.entries) {
		return fmt.Errorf("result index %d out of range (have %d entries)", index, len(c.entries))
	}
	c.entries[index].Result = result
	c.entries[index].Error = errMsg
	c.persistLocked()
	return nil
}

// Clear drops all entries and the persisted form. Explicit user action only.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	if err := c.store.Remove(persist.KeyBatchResults); err != nil {
		slog.Warn("Failed to clear persisted batch results", "err", err)
	}
}

// Entries returns a copy of the current outcome list.
func (c *Cache) Entries() []models.BatchResultEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.BatchResultEntry(nil), c.entries...)
}

// Get returns the entry at index.
func (c *Cache) Get(index int) (models.BatchResultEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.entries) {
		return models.BatchResultEntry{}, fmt.Errorf("result index %d out of range (have %d entries)", index, len(c.entries))
	}
	return c.entries[index], nil
}

// Len reports the number of recorded outcomes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) persistLocked() {
	if err := persist.SaveJSON(c.store, persist.KeyBatchResults, c.entries); err != nil {
		slog.Warn("Failed to persist batch results", "err", err)
	}
}
