package registry

import (
	"context"
	"time"

	"github.com/matzehuels/cratedeps/pkg/observability"
)

type instrumented struct{ Registry }

// Instrument reports every query of reg to the registered registry hooks.
func Instrument(reg Registry) Registry { return instrumented{reg} }

func (r instrumented) ListVersions(ctx context.Context, crate string) ([]string, error) {
	start := time.Now()
	v, err := r.Registry.ListVersions(ctx, crate)
	observability.Registry().OnQuery(ctx, r.Name(), "versions", time.Since(start), err)
	return v, err
}

func (r instrumented) ListDependencies(ctx context.Context, crate, version string, kinds Kinds) ([]Dependency, error) {
	start := time.Now()
	d, err := r.Registry.ListDependencies(ctx, crate, version, kinds)
	observability.Registry().OnQuery(ctx, r.Name(), "dependencies", time.Since(start), err)
	return d, err
}
