// Package graph provides the in-memory dependency graph built by a traversal.
//
// # Identity
//
// A vertex is identified by a [Key]: a crate name plus one concrete
// version. [Graph.GetOrCreate] interns keys into a dense arena so that a
// crate reached through several paths contributes exactly one vertex:
//
//	g := graph.New()
//	a := g.GetOrCreate(graph.Key{Name: "serde", Version: "1.0.210"})
//	b := g.GetOrCreate(graph.Key{Name: "serde", Version: "1.0.210"})
//	// a == b
//
// # Edges
//
// Edges are directed and unlabeled, with at most one edge per ordered pair.
// [Graph.AddEdge] reports whether the edge was new; the traversal in
// pkg/deps relies on that to stop re-expanding shared subtrees and to break
// cycles.
//
// # Ordering
//
// [Graph.Nodes] and [Graph.Edges] return creation order. Exporters rely on
// this: output is deterministic whenever the traversal is.
//
// # Serialization
//
// [Document] is the node-link wire format shared by the JSON exporter, the
// HTTP API and the run store:
//
//	{
//	  "root": 0,
//	  "nodes": [{"id": 0, "name": "foo", "version": "1.0.0"}],
//	  "edges": []
//	}
//
// # Analysis
//
// [Graph.Summary] reports size, degree and depth statistics and lists
// dependency cycles, found as strongly connected components with
// github.com/dominikbraun/graph.
package graph
