package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Kind classifies a dependency declaration the way Cargo does.
type Kind string

const (
	KindNormal Kind = "normal"
	KindBuild  Kind = "build"
	KindDev    Kind = "dev"
)

// kindCodes maps the integer encoding used by the crates.io database dump.
var kindCodes = map[int]Kind{0: KindNormal, 1: KindBuild, 2: KindDev}

// KindFromCode converts a crates.io database kind code to a Kind.
func KindFromCode(code int) (Kind, bool) {
	k, ok := kindCodes[code]
	return k, ok
}

// Code returns the crates.io database encoding of k, or -1 if unknown.
func (k Kind) Code() int {
	for code, kind := range kindCodes {
		if kind == k {
			return code
		}
	}
	return -1
}

// ParseKind parses a kind name. The empty string is treated as normal,
// which is how the crates.io index encodes normal dependencies.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindNormal, nil
	case KindNormal, KindBuild, KindDev:
		return k, nil
	default:
		return "", fmt.Errorf("unknown dependency kind %q (want normal, build or dev)", s)
	}
}

// Kinds is the set of dependency kinds a traversal follows.
type Kinds []Kind

// DefaultKinds follows runtime and build-script dependencies and ignores
// dev-dependencies, which never reach downstream users.
func DefaultKinds() Kinds { return Kinds{KindNormal, KindBuild} }

// ParseKinds parses a comma-separated list such as "normal,build".
// Duplicates are dropped and the result is sorted.
func ParseKinds(s string) (Kinds, error) {
	var kinds Kinds
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no dependency kinds in %q", s)
	}
	slices.Sort(kinds)
	return kinds, nil
}

// Contains reports whether k is part of the set.
func (ks Kinds) Contains(k Kind) bool { return slices.Contains(ks, k) }

// Strings returns the kind names, for cache keys and logging.
func (ks Kinds) Strings() []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}

// String joins the kinds with commas.
func (ks Kinds) String() string { return strings.Join(ks.Strings(), ",") }

// Codes returns the crates.io database encoding of every known kind.
func (ks Kinds) Codes() []int {
	codes := make([]int, 0, len(ks))
	for _, k := range ks {
		if c := k.Code(); c >= 0 {
			codes = append(codes, c)
		}
	}
	slices.Sort(codes)
	return codes
}

// Dependency is one declared dependency of a crate version.
type Dependency struct {
	Name        string `json:"name"`     // Crate name of the dependency (after renames)
	Requirement string `json:"req"`      // Version requirement, e.g. "^1.0"
	Kind        Kind   `json:"kind"`     // normal, build or dev
	Optional    bool   `json:"optional"` // Only enabled through a feature
}

// Registry is the read-only data source the resolver and graph builder query.
//
// Implementations must return version strings exactly as published; parsing
// and filtering happen in the version resolver so that malformed entries are
// handled uniformly. An unknown crate yields an empty version list, not an error.
type Registry interface {
	// Name identifies the backend (e.g. "postgres", "api", "index").
	Name() string

	// ListVersions returns every published version string of crate.
	ListVersions(ctx context.Context, crate string) ([]string, error)

	// ListDependencies returns the direct dependencies of crate at version,
	// restricted to kinds, in the order the registry stores them.
	ListDependencies(ctx context.Context, crate, version string, kinds Kinds) ([]Dependency, error)

	// Close releases the underlying connection.
	Close() error
}
