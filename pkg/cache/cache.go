// Package cache provides byte-oriented caching backends for registry
// responses and exported graphs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default,
//     ~/.cache/cratedeps/)
//   - [RedisCache]: shared cache for the HTTP server or several CLI hosts
//   - [NullCache]: disables caching (--no-cache)
//
// All backends implement [Cache]. Values are opaque byte slices; callers
// encode them (usually JSON) before storing.
//
// # Keys
//
// Keys are built by a [Keyer] so that the same registry query or graph
// request always maps to the same entry. Use [NewScopedKeyer] to isolate
// tenants or registries sharing one backend.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys with an optional TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key. The boolean reports a hit;
	// expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
