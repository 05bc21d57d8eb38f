// Package store provides the simple keyed blob store backing tools that hold
// cross-call state. Values are opaque byte slices keyed by (session, key);
// semantics are last-writer-wins with no cross-session consistency guarantee.
package store

import (
	"context"
	"fmt"
)

// ErrNotFound is returned when no value exists for the given session/key
// pair.
var ErrNotFound = fmt.Errorf("value not found")

// Store is a keyed blob store with explicit lifecycle. Implementations must
// be safe for concurrent use; concurrent sub-agents address their own state
// through distinct session ids.
type Store interface {
	// Open prepares the store for use. Calling any accessor before Open is
	// implementation-defined for Memory and an error for durable backends.
	Open(ctx context.Context) error

	// Close releases underlying resources. The store is unusable afterwards.
	Close() error

	// Get returns the value for the session/key pair or ErrNotFound.
	Get(ctx context.Context, session, key string) ([]byte, error)

	// Set stores (or overwrites) the value. Last writer wins.
	Set(ctx context.Context, session, key string, value []byte) error

	// Delete removes the value or returns ErrNotFound.
	Delete(ctx context.Context, session, key string) error

	// Keys returns the keys present for the session, sorted.
	Keys(ctx context.Context, session string) ([]string, error)

	// Clear removes every value belonging to the session.
	Clear(ctx context.Context, session string) error
}
