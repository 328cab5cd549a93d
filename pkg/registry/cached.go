package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/observability"
)

// CachedRegistry memoizes ListVersions and ListDependencies in a cache.Cache.
// Entries are JSON-encoded and keyed by the wrapped registry's name, so two
// backends never share entries. Cache failures degrade to a direct query.
type CachedRegistry struct {
	inner Registry
	cache cache.Cache
	keys  cache.Keyer
	ttl   time.Duration
}

// Cached wraps reg with a cache. A nil cache disables caching; ttl of zero
// keeps entries until they are cleared.
func Cached(reg Registry, c cache.Cache, ttl time.Duration) *CachedRegistry {
	if c == nil {
		c = cache.NullCache{}
	}
	return &CachedRegistry{inner: reg, cache: c, keys: cache.NewDefaultKeyer(), ttl: ttl}
}

// WithKeyer replaces the default keyer, e.g. with a [cache.ScopedKeyer].
func (r *CachedRegistry) WithKeyer(k cache.Keyer) *CachedRegistry {
	r.keys = k
	return r
}

// Name returns the wrapped registry's name.
func (r *CachedRegistry) Name() string { return r.inner.Name() }

// Unwrap returns the wrapped registry.
func (r *CachedRegistry) Unwrap() Registry { return r.inner }

// ListVersions returns the cached version list of crate, querying the
// wrapped registry on a miss. Empty lists are not cached so that a crate
// published after the first lookup is picked up.
func (r *CachedRegistry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	key := r.keys.VersionsKey(r.inner.Name(), crate)
	var versions []string
	if r.load(ctx, key, "versions", &versions) {
		return versions, nil
	}
	versions, err := r.inner.ListVersions(ctx, crate)
	if err != nil {
		return nil, err
	}
	if len(versions) > 0 {
		r.store(ctx, key, "versions", versions)
	}
	return versions, nil
}

// ListDependencies returns the cached dependency list of crate@version.
// Published versions are immutable, so empty lists are cached too.
func (r *CachedRegistry) ListDependencies(ctx context.Context, crate, version string, kinds Kinds) ([]Dependency, error) {
	key := r.keys.DependenciesKey(r.inner.Name(), crate, version, kinds.Strings())
	var deps []Dependency
	if r.load(ctx, key, "deps", &deps) {
		return deps, nil
	}
	deps, err := r.inner.ListDependencies(ctx, crate, version, kinds)
	if err != nil {
		return nil, err
	}
	if deps == nil {
		deps = []Dependency{}
	}
	r.store(ctx, key, "deps", deps)
	return deps, nil
}

// Close closes the wrapped registry. The cache is owned by the caller.
func (r *CachedRegistry) Close() error { return r.inner.Close() }

func (r *CachedRegistry) load(ctx context.Context, key, keyType string, v any) bool {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil || !ok || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true
}

func (r *CachedRegistry) store(ctx context.Context, key, keyType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if r.cache.Set(ctx, key, data, r.ttl) == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
}

var _ Registry = (*CachedRegistry)(nil)
