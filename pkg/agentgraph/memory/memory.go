// Package memory provides the cross-node key-value store and the
// text-substitution indirection that lets a later node reference an earlier
// node's result by a string token.
package memory

import (
	"context"
	"sync"
)

// Value is one stored memory entry. Result is what indirection tokens
// resolve to; Meta carries anything else the writer wants to keep.
type Value struct {
	Result string         `json:"result"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Store is the memory collaborator contract.
type Store interface {
	// Store saves a value under key, overwriting any previous value.
	Store(ctx context.Context, key string, v Value) error

	// Retrieve returns the value for key and whether it exists.
	Retrieve(ctx context.Context, key string) (Value, bool, error)
}

// InMemory is a process-local Store backed by a map.
// It is safe for concurrent use.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]Value
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]Value)}
}

// Store implements Store.
func (m *InMemory) Store(_ context.Context, key string, v Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
	return nil
}

// Retrieve implements Store.
func (m *InMemory) Retrieve(_ context.Context, key string) (Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

// Len returns the number of stored entries. Useful for testing.
func (m *InMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
