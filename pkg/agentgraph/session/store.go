// Package session provides the injected conversation-history store keyed by
// session id.
//
// The store has an explicit lifecycle: sessions are created on first use and
// evicted when idle (or explicitly). Appends to the same session are
// serialized by the store; distinct sessions proceed fully in parallel.
package session

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrStoreClosed indicates the store was used after Close().
	ErrStoreClosed = errors.New("session store is closed")

	// ErrNotFound indicates the session has no history.
	ErrNotFound = errors.New("session not found")
)

// Turn is one conversation turn in a session's history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists per-session conversation history.
//
// Implementations must serialize concurrent Appends to the same session id
// so interleaved runs sharing a session never corrupt its order.
type Store interface {
	// Append adds turns to the session's history, creating the session on
	// first use. Zero CreatedAt fields are stamped with the current time.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// History returns the session's turns in append order.
	// Returns ErrNotFound for unknown sessions.
	History(ctx context.Context, sessionID string) ([]Turn, error)

	// Evict removes the session and its history.
	// Evicting an unknown session is a no-op.
	Evict(ctx context.Context, sessionID string) error

	// Close releases the store's resources.
	Close() error
}
