package registry

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Registry. Versions and dependencies are returned
// in insertion order, which makes traversals over it fully deterministic.
type Memory struct {
	mu       sync.RWMutex
	versions map[string][]string
	deps     map[memKey][]Dependency
	queries  int
}

type memKey struct{ name, version string }

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string][]string),
		deps:     make(map[memKey][]Dependency),
	}
}

// Add publishes version of crate with the given dependencies. Adding the
// same version twice replaces its dependency list. The version string is
// stored verbatim, malformed or not.
func (m *Memory) Add(crate, version string, deps ...Dependency) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.versions[crate], version) {
		m.versions[crate] = append(m.versions[crate], version)
	}
	for i := range deps {
		if deps[i].Kind == "" {
			deps[i].Kind = KindNormal
		}
	}
	m.deps[memKey{crate, version}] = deps
	return m
}

// Dep is shorthand for a normal dependency declaration.
func Dep(name, req string) Dependency {
	return Dependency{Name: name, Requirement: req, Kind: KindNormal}
}

// Name returns "memory".
func (m *Memory) Name() string { return "memory" }

// Queries returns how many registry queries have been answered.
func (m *Memory) Queries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries
}

// ListVersions returns the versions added for crate.
func (m *Memory) ListVersions(ctx context.Context, crate string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	return slices.Clone(m.versions[crate]), nil
}

// ListDependencies returns the dependencies of crate@version whose kind is in kinds.
func (m *Memory) ListDependencies(ctx context.Context, crate, version string, kinds Kinds) ([]Dependency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	var out []Dependency
	for _, d := range m.deps[memKey{crate, version}] {
		if kinds.Contains(d.Kind) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Close does nothing.
func (m *Memory) Close() error { return nil }

var _ Registry = (*Memory)(nil)
