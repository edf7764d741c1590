// Package counter defines the durable hit counter and its implementations.
//
// The counter is the only shared mutable state in the system. Increment
// must be atomic in the backing store: when several instances process the
// same stream, the post-increment value is what decides which instance
// dispatches the notification.
package counter

import (
	"context"
	"errors"
)

// ErrUnavailable classifies transient connectivity failures. Callers may
// retry an Increment that failed with this error; any other error is
// unexpected and must not be retried.
var ErrUnavailable = errors.New("counter store unavailable")

// Store is the durable per-submission hit counter.
type Store interface {
	// Increment atomically bumps the counter for key and returns the
	// post-increment value. The first sighting of a key returns 1.
	Increment(ctx context.Context, key string) (int64, error)

	Close() error
}
