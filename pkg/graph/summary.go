package graph

import (
	"slices"

	dgraph "github.com/dominikbraun/graph"
)

// Summary describes the shape of a finished graph.
type Summary struct {
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	Roots        int     `json:"roots"`          // Vertices without dependents
	Leaves       int     `json:"leaves"`         // Vertices without dependencies
	MaxOutDegree int     `json:"max_out_degree"` // Largest number of direct dependencies
	Depth        int     `json:"depth"`          // Longest shortest path from the first vertex
	Cycles       [][]Key `json:"cycles,omitempty"`
}

// Acyclic reports whether the graph has no dependency cycles.
func (s Summary) Acyclic() bool { return len(s.Cycles) == 0 }

// Summary computes statistics for the graph. Cycles are the strongly
// connected components with more than one vertex plus self-loops, each
// listed in creation order.
func (g *Graph) Summary() (Summary, error) {
	s := Summary{Nodes: g.NodeCount(), Edges: g.EdgeCount(), Roots: len(g.Roots())}
	if s.Nodes == 0 {
		return s, nil
	}

	dg := dgraph.New(dgraph.IntHash, dgraph.Directed())
	for _, n := range g.nodes {
		if err := dg.AddVertex(int(n.ID)); err != nil {
			return Summary{}, err
		}
	}

	selfLoops := map[NodeID]bool{}
	for _, e := range g.edges {
		if e.From == e.To {
			selfLoops[e.From] = true
			continue
		}
		if err := dg.AddEdge(int(e.From), int(e.To)); err != nil {
			return Summary{}, err
		}
	}

	for _, kids := range g.children {
		if len(kids) == 0 {
			s.Leaves++
		}
		s.MaxOutDegree = max(s.MaxOutDegree, len(kids))
	}
	s.Depth = g.depth()

	sccs, err := dgraph.StronglyConnectedComponents(dg)
	if err != nil {
		return Summary{}, err
	}
	for _, scc := range sccs {
		if len(scc) == 1 && !selfLoops[NodeID(scc[0])] {
			continue
		}
		slices.Sort(scc)
		keys := make([]Key, len(scc))
		for i, id := range scc {
			keys[i] = g.nodes[id].Key
		}
		s.Cycles = append(s.Cycles, keys)
	}
	slices.SortFunc(s.Cycles, func(a, b []Key) int {
		ia, _ := g.Lookup(a[0])
		ib, _ := g.Lookup(b[0])
		return int(ia - ib)
	})
	return s, nil
}

// depth returns the largest BFS distance from the first vertex.
func (g *Graph) depth() int {
	dist := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = -1
	}
	dist[0] = 0
	queue := []NodeID{0}
	deepest := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range g.children[id] {
			if dist[c] < 0 {
				dist[c] = dist[id] + 1
				deepest = max(deepest, dist[c])
				queue = append(queue, c)
			}
		}
	}
	return deepest
}
