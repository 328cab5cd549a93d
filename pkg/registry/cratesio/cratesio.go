// Package cratesio implements a registry backed by the crates.io web API.
package cratesio

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/integrations"
	"github.com/matzehuels/cratedeps/pkg/integrations/crates"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Name identifies this backend in cache keys and metrics.
const Name = "api"

// Options configures the API registry.
type Options struct {
	// IncludeYanked keeps yanked versions in ListVersions. They are
	// excluded by default, matching what cargo would select.
	IncludeYanked bool

	// Refresh bypasses the client's HTTP cache.
	Refresh bool

	Logger *log.Logger
}

// Registry answers queries through a [crates.Client].
type Registry struct {
	client *crates.Client
	opts   Options
}

// New creates an API registry over client.
func New(client *crates.Client, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Registry{client: client, opts: opts}
}

// Name returns "api".
func (r *Registry) Name() string { return Name }

// ListVersions returns the published versions of crate in API order.
// An unknown crate yields an empty list.
func (r *Registry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	versions, err := r.client.FetchVersions(ctx, crate, r.opts.Refresh)
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(versions))
	for _, v := range versions {
		if v.Yanked && !r.opts.IncludeYanked {
			continue
		}
		out = append(out, v.Num)
	}
	return out, nil
}

// ListDependencies returns the dependencies of crate@version whose kind is
// in kinds. An unknown crate or version yields an empty list.
func (r *Registry) ListDependencies(ctx context.Context, crate, version string, kinds registry.Kinds) ([]registry.Dependency, error) {
	deps, err := r.client.FetchDependencies(ctx, crate, version, r.opts.Refresh)
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []registry.Dependency
	for _, d := range deps {
		kind, err := registry.ParseKind(d.Kind)
		if err != nil {
			r.opts.Logger.Debug("skipping dependency with unknown kind", "crate", crate, "dep", d.CrateID, "kind", d.Kind)
			continue
		}
		if !kinds.Contains(kind) {
			continue
		}
		out = append(out, registry.Dependency{
			Name:        d.CrateID,
			Requirement: d.Req,
			Kind:        kind,
			Optional:    d.Optional,
		})
	}
	return out, nil
}

// Close is a no-op; the HTTP client holds no resources.
func (r *Registry) Close() error { return nil }
