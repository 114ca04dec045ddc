// internal/store/store.go

// Package store is the replicated document gateway the game rooms write to.
// Documents are JSON values addressed by a slash-separated path such as
// "rooms/ABCD/game". Backends differ in where documents live; all of them
// deliver changes to subscribers in commit order and run transactions
// atomically per document.
package store

import (
	"context"
	"errors"
)

var (
	// ErrAbort is returned by a transaction function to give up without
	// writing. Transaction then reports committed=false and no error.
	ErrAbort = errors.New("store: transaction aborted")
	// ErrNotFound is returned by Get for a missing document.
	ErrNotFound = errors.New("store: document not found")
	// ErrClosed is returned once the gateway has been closed.
	ErrClosed = errors.New("store: gateway closed")
)

// TxFunc receives the current document (nil if missing) and returns the
// replacement, or ErrAbort.
type TxFunc func(current []byte) ([]byte, error)

// Gateway is the set of primitives the game core needs from its store.
type Gateway interface {
	// Subscribe delivers the current document, then every committed change,
	// until ctx is done. The channel is closed afterwards.
	Subscribe(ctx context.Context, path string) (<-chan []byte, error)
	// Get returns the current document.
	Get(ctx context.Context, path string) ([]byte, error)
	// Update merges fields into the document. Keys may address nested
	// members with "/", e.g. "hands/<id>".
	Update(ctx context.Context, path string, fields map[string]any) error
	// Set replaces the whole document.
	Set(ctx context.Context, path string, value any) error
	// Transaction applies fn atomically against the current document.
	Transaction(ctx context.Context, path string, fn TxFunc) (committed bool, err error)
	// BroadcastEvent writes ev to the document's "event" field with a fresh
	// unique id, which it returns. An id already present on ev is kept.
	BroadcastEvent(ctx context.Context, path string, ev any) (string, error)
	// Delete removes the document.
	Delete(ctx context.Context, path string) error
	// Close releases backend resources.
	Close() error
}
