package export

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/cratedeps/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// RankDir is the Graphviz layout direction: TB (default), LR, BT or RL.
	RankDir string

	// MarkCycles draws edges inside dependency cycles in red.
	MarkCycles bool
}

// DOT converts a graph to Graphviz DOT source. Vertices are emitted in
// creation order with their "<name> - <version>" label as both identifier
// and label, followed by every edge in creation order.
func DOT(g *graph.Graph, opts Options) []byte {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	nodes := g.Nodes()
	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.Label(), n.Label())
	}

	var onCycle map[graph.Key]int
	if opts.MarkCycles {
		onCycle = cycleMembers(g)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		from, to := nodes[e.From].Key, nodes[e.To].Key
		if c, ok := onCycle[from]; ok && onCycle[to] == c {
			fmt.Fprintf(&buf, "  %q -> %q [color=red];\n", from.String(), to.String())
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", from.String(), to.String())
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}

// cycleMembers maps every vertex on a cycle to its cycle number, starting at 1.
func cycleMembers(g *graph.Graph) map[graph.Key]int {
	s, err := g.Summary()
	if err != nil {
		return nil
	}
	m := make(map[graph.Key]int)
	for i, cycle := range s.Cycles {
		for _, k := range cycle {
			m[k] = i + 1
		}
	}
	return m
}
