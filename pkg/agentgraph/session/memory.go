package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

// entry holds one session's history plus its own lock, so concurrent
// appenders to the same session serialize on the entry rather than on the
// whole store.
type entry struct {
	mu       sync.Mutex
	turns    []Turn
	lastUsed time.Time
}

// MemoryStore is an in-process Store. Sessions are created on first use and
// evicted by a janitor goroutine after idling longer than the configured TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	idleTTL  time.Duration
	closed   bool
	stop     chan struct{}
	stopOnce sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithIdleTTL enables idle eviction: sessions untouched for ttl are removed
// by a background janitor. Zero (the default) disables eviction.
func WithIdleTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.idleTTL = ttl
	}
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]*entry),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.idleTTL > 0 {
		go m.janitor()
	}
	return m
}

// get returns the entry for sessionID, creating it when create is set.
func (m *MemoryStore) get(sessionID string, create bool) (*entry, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	e, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok || !create {
		if !ok {
			return nil, ErrNotFound
		}
		return e, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	if e, ok := m.sessions[sessionID]; ok {
		return e, nil
	}
	e = &entry{lastUsed: time.Now()}
	m.sessions[sessionID] = e
	return e, nil
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	e, err := m.get(sessionID, true)
	if err != nil {
		return err
	}
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		e.turns = append(e.turns, t)
	}
	e.lastUsed = now
	return nil
}

// History implements Store.
func (m *MemoryStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	e, err := m.get(sessionID, false)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()
	return slices.Clone(e.turns), nil
}

// Evict implements Store.
func (m *MemoryStore) Evict(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.sessions, sessionID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = nil
	return nil
}

// Len returns the number of live sessions. Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// janitor evicts idle sessions every idleTTL/2.
func (m *MemoryStore) janitor() {
	interval := m.idleTTL / 2
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *MemoryStore) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for id, e := range m.sessions {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(m.sessions, id)
		}
	}
}
