// Package store provides counting backends for rate limiting.
package store

import (
	"context"
	"time"
)

// Value is an immutable snapshot of a counter taken by a store operation.
type Value struct {
	// Count is the counter value after the operation.
	Count int64

	// CreatedAt is the instant the current window started.
	// Zero when the backend does not track creation time.
	CreatedAt time.Time

	// ExpiresAt is the instant the current window ends.
	// Zero when no expiry is known.
	ExpiresAt time.Time
}

// Store defines the interface for rate limit counting backends.
// Implementations must be safe for concurrent use: increments to the same
// key from concurrent callers must never lose updates, and the sequence of
// counts observed for any single key is consistent with some total order
// of those increments.
type Store interface {
	// IncrementBy atomically adds amount to the counter for the given key,
	// creating or resetting the counter first if it is absent or its window
	// has expired, and returns the post-increment snapshot. The count after
	// the increment that starts a new window equals exactly amount.
	IncrementBy(ctx context.Context, key string, amount int64) (Value, error)

	// Increment is IncrementBy with an amount of 1.
	Increment(ctx context.Context, key string) (Value, error)

	// Delete removes the counter for the given key. The boolean is true when
	// the backend can report the removed counter's last value; backends that
	// cannot do so cheaply return false with a zero Value.
	Delete(ctx context.Context, key string) (Value, bool, error)

	// Clear removes all counters. Backends for which bulk clearing is
	// expensive or unsafe (a shared remote keyspace) implement this as a
	// documented no-op.
	Clear(ctx context.Context) error
}
