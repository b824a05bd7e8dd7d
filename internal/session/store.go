package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by [Store.Get] when the attribute does not exist.
var ErrNotFound = errors.New("session: attribute not found")

// Store holds named attributes scoped to a session. Implementations must
// give read-your-writes consistency within a session and be safe for
// concurrent use across sessions.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, sessionID, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, sessionID, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, sessionID, key string) error

	// Clear deletes every attribute of the session.
	Clear(ctx context.Context, sessionID string) error
}
