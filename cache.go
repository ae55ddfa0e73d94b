package saint

import (
	"context"
	"time"
)

// Cache is the interface of the pools backing the opts store.
// The memory implementation lives in the cache package; any shared
// store (Redis, Memcached, a database table) can implement it for
// deployments that run multiple processes.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey builds the key of an entry inside a namespace (table).
type CacheKey struct {
	Table string
	Name  string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	if k.Table == "" {
		return k.Name
	}
	return k.Table + ":" + k.Name
}
