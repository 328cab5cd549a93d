package version

import (
	"context"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Options configures a Resolver.
type Options struct {
	// StableOnly makes Latest skip pre-releases unless a crate has never
	// published a release. By default Latest returns the highest version,
	// pre-releases included.
	StableOnly bool

	// Logger receives warnings about malformed version strings.
	// Nil uses log.Default().
	Logger *log.Logger
}

// Resolver picks concrete versions from a registry. Parsed version lists
// are memoized for the lifetime of the Resolver, so one Resolver should
// serve one graph build.
type Resolver struct {
	reg    registry.Registry
	opts   Options
	logger *log.Logger

	mu       sync.Mutex
	versions map[string][]*Version
}

// NewResolver creates a Resolver over reg.
func NewResolver(reg registry.Registry, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		reg:      reg,
		opts:     opts,
		logger:   logger,
		versions: make(map[string][]*Version),
	}
}

// Versions returns every well-formed published version of crate in
// ascending precedence order. Malformed strings are logged and skipped.
// Registry failures are REGISTRY_QUERY errors.
func (r *Resolver) Versions(ctx context.Context, crate string) ([]*Version, error) {
	r.mu.Lock()
	cached, ok := r.versions[crate]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	raw, err := r.reg.ListVersions(ctx, crate)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRegistryQuery, err, "list versions of %s", crate)
	}

	parsed := make([]*Version, 0, len(raw))
	for _, s := range raw {
		v, err := semver.StrictNewVersion(s)
		if err != nil {
			r.logger.Warn("ignoring malformed version", "crate", crate, "version", s, "err", err)
			continue
		}
		parsed = append(parsed, v)
	}
	slices.SortFunc(parsed, func(a, b *Version) int { return a.Compare(b) })

	r.mu.Lock()
	r.versions[crate] = parsed
	r.mu.Unlock()
	return parsed, nil
}

// Latest returns the highest version of crate by semver precedence. It
// fails with UNKNOWN_CRATE when the crate has no parseable versions.
func (r *Resolver) Latest(ctx context.Context, crate string) (*Version, error) {
	versions, err := r.Versions(ctx, crate)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, errs.New(errs.ErrCodeUnknownCrate, "crate %s has no valid versions", crate)
	}
	if r.opts.StableOnly {
		for i := len(versions) - 1; i >= 0; i-- {
			if versions[i].Prerelease() == "" {
				return versions[i], nil
			}
		}
	}
	return versions[len(versions)-1], nil
}

// Resolve returns the newest version of crate satisfying requirement.
//
// A malformed requirement is a REQUIREMENT_PARSE error. If no version
// matches, or the crate has no parseable versions at all, the error is
// NO_MATCHING_VERSION; in the latter case it wraps an UNKNOWN_CRATE cause.
func (r *Resolver) Resolve(ctx context.Context, crate, requirement string) (*Version, error) {
	req, err := ParseRequirement(requirement)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRequirementParse, err, "resolve %s", crate)
	}
	versions, err := r.Versions(ctx, crate)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		cause := errs.New(errs.ErrCodeUnknownCrate, "crate %s has no valid versions", crate)
		return nil, errs.Wrap(errs.ErrCodeNoMatchingVersion, cause, "no version of %s matches %q", crate, requirement)
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if req.Matches(versions[i]) {
			return versions[i], nil
		}
	}
	return nil, errs.New(errs.ErrCodeNoMatchingVersion, "no version of %s matches %q", crate, requirement)
}
