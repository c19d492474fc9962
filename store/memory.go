package store

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryAdapter provides thread-safe in-memory storage.
// Values are copied on the way in and out.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryAdapter creates a new in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value by key.
func (m *MemoryAdapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Set stores a value by key.
func (m *MemoryAdapter) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

// Delete removes a key.
func (m *MemoryAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the sorted keys with the given prefix.
func (m *MemoryAdapter) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (m *MemoryAdapter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var _ Adapter = (*MemoryAdapter)(nil)
