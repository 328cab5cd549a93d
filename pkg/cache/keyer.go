package cache

import (
	"slices"
	"strings"
)

// GraphKeyOpts holds the request parameters that change a built graph.
type GraphKeyOpts struct {
	Version          string   `json:"version,omitempty"`
	MaxDepth         int      `json:"max_depth,omitempty"`
	Kinds            []string `json:"kinds,omitempty"`
	SkipUnresolvable bool     `json:"skip_unresolvable,omitempty"`
	Format           string   `json:"format,omitempty"`
}

// Keyer builds cache keys for every cached object type.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response.
	HTTPKey(namespace, key string) string

	// VersionsKey generates a key for the version list of a crate.
	VersionsKey(registry, crate string) string

	// DependenciesKey generates a key for the dependency list of one crate version.
	DependenciesKey(registry, crate, version string, kinds []string) string

	// GraphKey generates a key for an exported graph artifact.
	GraphKey(registry, crate string, opts GraphKeyOpts) string
}

// DefaultKeyer produces human-readable keys for registry queries and hashed
// keys for graph artifacts (whose options do not fit a readable key).
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey generates a key for HTTP response caching.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// VersionsKey generates a key for a crate's version list.
func (DefaultKeyer) VersionsKey(registry, crate string) string {
	return "versions:" + registry + ":" + crate
}

// DependenciesKey generates a key for a crate version's dependency list.
// Kinds are sorted so that "normal,build" and "build,normal" share an entry.
func (DefaultKeyer) DependenciesKey(registry, crate, version string, kinds []string) string {
	k := slices.Clone(kinds)
	slices.Sort(k)
	return "deps:" + registry + ":" + crate + "@" + version + ":" + strings.Join(k, ",")
}

// GraphKey generates a hashed key for an exported graph.
func (DefaultKeyer) GraphKey(registry, crate string, opts GraphKeyOpts) string {
	opts.Kinds = slices.Clone(opts.Kinds)
	slices.Sort(opts.Kinds)
	return hashKey("graph", registry, crate, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for isolation.
// This is useful when several registries or deployments share one Redis
// instance and must not read each other's entries.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// VersionsKey generates a prefixed key for a crate's version list.
func (k *ScopedKeyer) VersionsKey(registry, crate string) string {
	return k.prefix + k.inner.VersionsKey(registry, crate)
}

// DependenciesKey generates a prefixed key for a dependency list.
func (k *ScopedKeyer) DependenciesKey(registry, crate, version string, kinds []string) string {
	return k.prefix + k.inner.DependenciesKey(registry, crate, version, kinds)
}

// GraphKey generates a prefixed key for an exported graph.
func (k *ScopedKeyer) GraphKey(registry, crate string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(registry, crate, opts)
}
