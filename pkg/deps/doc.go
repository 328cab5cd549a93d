// Package deps builds transitive dependency graphs of crates.
//
// # Overview
//
// A [Builder] starts from a root crate, resolves every declared dependency
// to the newest version satisfying its requirement, and records the result
// in a [graph.Graph]. The traversal is single-threaded, depth-first and
// pre-order: each new dependency is fully expanded before its next sibling,
// in the order the registry lists dependencies. That makes the vertex and
// edge order of the graph, and therefore every export, deterministic.
//
// # Algorithm
//
// Expanding crate C at version V and depth d:
//
//  1. If MaxDepth > 0 and d >= MaxDepth, stop (the vertex for C@V was
//     already created by its parent)
//  2. Get or create the vertex for C@V
//  3. List C@V's dependencies of the accepted kinds; none is a valid leaf
//  4. For each dependency: resolve it, get or create its vertex, and if the
//     edge from C@V is new, add it and expand the dependency at depth d+1
//
// Step 4 never re-expands a (parent, dependency) pair, which both removes
// duplicate work in diamonds and terminates traversal of dependency cycles.
//
// # Failure Policy
//
// By default any failure aborts the build and no graph is returned. With
// [Options.SkipUnresolvable], malformed requirements and requirements no
// published version satisfies are logged and recorded in [Result.Skipped]
// instead; registry failures remain fatal.
//
// # Usage
//
//	b := deps.NewBuilder(reg, deps.Options{MaxDepth: 10})
//	res, err := b.Build(ctx, "serde_json")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Root, res.Stats.Nodes, res.Stats.Edges)
//
// # Manifests
//
// [ParseManifest] reads a local Cargo.toml and [Builder.BuildManifest]
// expands its registry dependencies with the manifest's package as root.
package deps
