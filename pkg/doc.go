// Package pkg holds the libraries behind cratedeps, a tool that builds the
// transitive dependency graph of a Rust crate.
//
// # Overview
//
// The libraries are layered so that each one depends only on those below it:
//
//  1. [registry] - where crate versions and dependencies come from
//     (crates.io database dump, web API or index)
//  2. [version] - Cargo requirement parsing and highest-match resolution
//  3. [graph] - the append-only node store and its JSON document
//  4. [deps] - the depth-first graph builder
//  5. [export] - DOT, JSON, SVG, PNG and PDF output
//
// Supporting packages provide caching ([cache]), HTTP access
// ([integrations], [httputil]), configuration ([config]), run history
// ([store]), metrics hooks ([observability]) and error codes ([errors]).
//
// # Data Flow
//
//	registry (postgres | api | index)
//	         ↓  registry.Cached + registry.Instrument
//	version.Resolver        resolve "^1.0" to 1.0.219
//	         ↓
//	deps.Builder            depth-first expansion into graph.Graph
//	         ↓
//	export.Write            dot / json / svg / png / pdf
//
// # Quick Start
//
//	reg, err := postgres.Open(ctx, os.Getenv("DATABASE_URL"))
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
//	res, err := deps.NewBuilder(reg, deps.Options{MaxDepth: 3}).Build(ctx, "serde")
//	if err != nil {
//	    return err
//	}
//	return export.Write(ctx, res.Graph, "serde.svg", "", export.Options{})
//
// [registry]: github.com/matzehuels/cratedeps/pkg/registry
// [version]: github.com/matzehuels/cratedeps/pkg/version
// [graph]: github.com/matzehuels/cratedeps/pkg/graph
// [deps]: github.com/matzehuels/cratedeps/pkg/deps
// [export]: github.com/matzehuels/cratedeps/pkg/export
// [cache]: github.com/matzehuels/cratedeps/pkg/cache
// [integrations]: github.com/matzehuels/cratedeps/pkg/integrations
// [httputil]: github.com/matzehuels/cratedeps/pkg/httputil
// [config]: github.com/matzehuels/cratedeps/pkg/config
// [store]: github.com/matzehuels/cratedeps/pkg/store
// [observability]: github.com/matzehuels/cratedeps/pkg/observability
// [errors]: github.com/matzehuels/cratedeps/pkg/errors
package pkg
