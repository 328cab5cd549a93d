// Package version selects concrete crate versions from a registry.
//
// # Overview
//
// A [Resolver] answers two questions for the graph builder:
//
//   - [Resolver.Latest]: the newest published version of a crate (the root)
//   - [Resolver.Resolve]: the newest version satisfying a requirement
//
// Both fetch every published version string, parse them strictly as
// semantic versions, and discard (with a warning) anything malformed.
// Selection is always "maximum by semver precedence"; there is no
// cross-package conflict resolution.
//
// # Requirements
//
// [ParseRequirement] accepts Cargo requirement syntax and normalizes it for
// github.com/Masterminds/semver/v3:
//
//   - a bare version means caret: "1.2" is "^1.2"
//   - comparators are separated by commas and all must match
//   - "*" and the empty string match any release
//
// Pre-release versions only satisfy requirements that mention a
// pre-release themselves.
package version
