package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is a trivial in-process Store implementation useful for tests,
// examples and single-process prototypes. It keeps all values in a nested map
// guarded by an RWMutex. Data is copied on write and read to avoid accidental
// external mutation of internal buffers.
//
// Layout: session -> key -> raw bytes
//
// It does not enforce retention limits, size quotas or eviction; for anything
// that must survive a process restart use SQLite.
type Memory struct {
	mu     sync.RWMutex
	values map[string]map[string][]byte // session -> key -> data
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string][]byte)}
}

// Open is a no-op for in-memory storage.
func (m *Memory) Open(ctx context.Context) error { return nil }

// Close discards all stored values.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]map[string][]byte)
	return nil
}

// Set stores (or overwrites) the value for the given session and key. The
// input slice is copied before storage.
func (m *Memory) Set(ctx context.Context, session, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.values[session]; !exists {
		m.values[session] = make(map[string][]byte)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.values[session][key] = cp
	return nil
}

// Get returns a copy of the stored value or ErrNotFound.
func (m *Memory) Get(ctx context.Context, session, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.values[session]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := sess[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete removes the value if present or returns ErrNotFound.
func (m *Memory) Delete(ctx context.Context, session, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.values[session]
	if !ok {
		return ErrNotFound
	}
	if _, ok := sess[key]; !ok {
		return ErrNotFound
	}
	delete(sess, key)
	return nil
}

// Keys returns the keys stored for the session, sorted. The slice is a
// snapshot and safe for caller mutation.
func (m *Memory) Keys(ctx context.Context, session string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.values[session]
	if !ok {
		return []string{}, nil
	}
	keys := make([]string, 0, len(sess))
	for k := range sess {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every value belonging to the session.
func (m *Memory) Clear(ctx context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, session)
	return nil
}
