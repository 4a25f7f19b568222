package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store over serialized JSON blobs. It is a
// disposable derived view: callers must tolerate a wiped cache with at worst
// a performance regression.
type Cache interface {
	// Get unmarshals the cached value for key into dest. Returns false on miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching the glob pattern.
	DeletePattern(ctx context.Context, pattern string) error
}
