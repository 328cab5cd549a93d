// Package registry defines the data source that dependency graphs are built
// from, together with the backends that implement it.
//
// # Overview
//
// A [Registry] answers two questions: which versions of a crate exist, and
// which dependencies a given crate version declares. Everything else
// (version parsing, requirement matching, traversal) lives in the callers,
// so backends stay thin adapters over their transport.
//
// # Backends
//
//   - [Memory]: in-process registry for tests and examples
//   - [postgres]: the crates.io database dump
//   - [cratesio]: the crates.io REST API
//   - [index]: the crates.io index, from a local checkout or the sparse HTTP index
//
// Wrap any backend with [Cached] to memoize both queries in a [cache.Cache].
//
// # Dependency Kinds
//
// Dependencies carry a [Kind] (normal, build, dev). Traversals pass the set
// of kinds they follow as [Kinds]; [DefaultKinds] excludes dev-dependencies.
//
// [postgres]: github.com/matzehuels/cratedeps/pkg/registry/postgres
// [cratesio]: github.com/matzehuels/cratedeps/pkg/registry/cratesio
// [index]: github.com/matzehuels/cratedeps/pkg/registry/index
// [cache.Cache]: github.com/matzehuels/cratedeps/pkg/cache.Cache
package registry
