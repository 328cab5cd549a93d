package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
)

// Version is a parsed semantic version.
type Version = semver.Version

// Requirement is a parsed Cargo version requirement.
type Requirement struct {
	raw         string
	constraints *semver.Constraints
}

// ParseRequirement parses a Cargo-style requirement such as "^1.0",
// ">=0.3, <0.5" or "1.2.3". Malformed input yields a REQUIREMENT_PARSE error.
func ParseRequirement(s string) (*Requirement, error) {
	c, err := semver.NewConstraint(normalize(s))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRequirementParse, err, "invalid version requirement %q", s)
	}
	return &Requirement{raw: s, constraints: c}, nil
}

// Matches reports whether v satisfies the requirement.
func (r *Requirement) Matches(v *Version) bool {
	return r.constraints.Check(v)
}

// String returns the requirement as written.
func (r *Requirement) String() string { return r.raw }

// normalize rewrites Cargo syntax into the dialect semver.NewConstraint
// understands. Cargo treats a bare version as a caret requirement, while the
// library treats it as an exact match.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "*"
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && isDigit(p[0]) && !isWildcard(p) {
			p = "^" + p
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isWildcard reports whether the version core of p (before any
// pre-release or build suffix) uses "*" or "x" placeholders.
func isWildcard(p string) bool {
	if i := strings.IndexAny(p, "-+"); i >= 0 {
		p = p[:i]
	}
	return strings.ContainsAny(p, "*xX")
}
