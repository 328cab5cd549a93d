package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownNode is returned when an edge or lookup references a NodeID
	// that was never allocated by [Graph.GetOrCreate].
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateKey is returned by [FromDocument] when two nodes share a
	// (name, version) key.
	ErrDuplicateKey = errors.New("duplicate node key")
)

// Key is the identity of a vertex: a crate at one concrete version.
// Two vertices with equal keys are the same vertex.
type Key struct {
	Name    string `json:"name" bson:"name"`
	Version string `json:"version" bson:"version"`
}

// String renders the key as "<name> - <version>", the vertex label used in
// every exported format.
func (k Key) String() string { return k.Name + " - " + k.Version }

// NodeID is a dense index into the graph's node arena. IDs are allocated
// in creation order starting at zero and never change.
type NodeID int

// Node is a vertex of the graph.
type Node struct {
	ID  NodeID
	Key Key
}

// Label returns the display label of the node.
func (n Node) Label() string { return n.Key.String() }

// Edge is a directed "depends on" relation between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is a directed dependency graph whose vertices are interned by Key.
//
// Nodes live in an arena indexed by NodeID, and a key→index map guarantees
// one vertex per key. Edges are kept in creation order alongside a set that
// rejects duplicates. Graph is not safe for concurrent use; one traversal
// owns it while building and it is read-only afterwards.
//
// The zero value is not usable - use New.
type Graph struct {
	nodes    []Node
	index    map[Key]NodeID
	edges    []Edge
	edgeSet  map[Edge]struct{}
	children [][]NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:   make(map[Key]NodeID),
		edgeSet: make(map[Edge]struct{}),
	}
}

// GetOrCreate returns the vertex for key, allocating it on first sight.
// Calling it again with an equal key returns the same NodeID.
func (g *Graph) GetOrCreate(key Key) NodeID {
	if id, ok := g.index[key]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Key: key})
	g.children = append(g.children, nil)
	g.index[key] = id
	return id
}

// Lookup returns the vertex for key without creating it.
func (g *Graph) Lookup(key Key) (NodeID, bool) {
	id, ok := g.index[key]
	return id, ok
}

// Node returns the vertex with the given ID.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if !g.valid(id) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Nodes returns all vertices in creation order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Edges returns all edges in creation order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasEdge reports whether the edge from → to exists.
func (g *Graph) HasEdge(from, to NodeID) bool {
	_, ok := g.edgeSet[Edge{from, to}]
	return ok
}

// AddEdge records the edge from → to. It returns false without modifying
// the graph when the edge already exists. Both endpoints must have been
// allocated by GetOrCreate.
func (g *Graph) AddEdge(from, to NodeID) (bool, error) {
	if !g.valid(from) {
		return false, fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if !g.valid(to) {
		return false, fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	e := Edge{from, to}
	if _, ok := g.edgeSet[e]; ok {
		return false, nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.children[from] = append(g.children[from], to)
	return true, nil
}

// Children returns the direct dependencies of id in the order their edges
// were added.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return slices.Clone(g.children[id])
}

// Roots returns the vertices without incoming edges, in creation order.
// A root that takes part in a cycle has an incoming edge and is therefore
// not reported.
func (g *Graph) Roots() []NodeID {
	hasParent := make([]bool, len(g.nodes))
	for _, e := range g.edges {
		hasParent[e.To] = true
	}
	var roots []NodeID
	for id, p := range hasParent {
		if !p {
			roots = append(roots, NodeID(id))
		}
	}
	return roots
}

func (g *Graph) valid(id NodeID) bool { return id >= 0 && int(id) < len(g.nodes) }
