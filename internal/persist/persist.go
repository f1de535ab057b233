// Package persist provides the durable key/value store that the selection
// set, result cache, and query controller use to survive restarts. Loading
// is always best effort: corrupt or missing state yields zero values, never
// an error surfaced to the user.
package persist

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Well-known snapshot keys.
const (
	KeySelectedItems = "selectedItemIds"
	KeyBatchResults  = "batchResults"
	KeyFilterState   = "filterState"
)

// Store is the injectable persistence boundary. Implementations must be safe
// for use from interleaved callers.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// SaveJSON marshals v and writes it under key.
func SaveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, data)
}

// LoadJSON reads key into v. A missing key, a read error, or corrupt JSON all
// leave v untouched and return false; restore-from-persistence never fails
// the caller.
func LoadJSON(s Store, key string, v any) bool {
	data, ok, err := s.Get(key)
	if err != nil {
		slog.Warn("Failed to read persisted state, starting fresh", "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("Persisted state is corrupt, starting fresh", "key", key, "err", err)
		return false
	}
	return true
}

// Memory is an in-process Store used by tests and ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
