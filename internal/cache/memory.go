package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Persistence used in tests and for runs without
// a database.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry

	// LoadErr, when set, is returned by LoadIndex to simulate a corrupt or
	// unreachable store.
	LoadErr error
}

// NewMemoryStore returns an empty in-memory persistence layer.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (m *MemoryStore) LoadIndex(ctx context.Context) (map[string]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	out := make(map[string]Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) Close() {}

// Len reports how many entries are persisted.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
