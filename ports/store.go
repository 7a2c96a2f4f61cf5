package ports

import (
	"context"
	"time"
)

// Store is a key-value cache with per-key TTL. It is the single source of
// truth for refresh-token and one-time-code liveness.
type Store interface {
	// Set writes a key with a TTL, overwriting any existing entry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value at key, or core.ErrNotFound if the key is
	// absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
}
