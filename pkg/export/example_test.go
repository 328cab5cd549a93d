package export_test

import (
	"fmt"

	"github.com/matzehuels/cratedeps/pkg/export"
	"github.com/matzehuels/cratedeps/pkg/graph"
)

func ExampleDOT() {
	g := graph.New()
	foo := g.GetOrCreate(graph.Key{Name: "foo", Version: "1.0.0"})
	bar := g.GetOrCreate(graph.Key{Name: "bar", Version: "2.1.0"})
	g.AddEdge(foo, bar)

	fmt.Print(string(export.DOT(g, export.Options{})))
	// Output:
	// digraph G {
	//   rankdir=TB;
	//   node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14, margin="0.2,0.1"];
	//   ranksep=0.5;
	//   nodesep=0.3;
	//
	//   "foo - 1.0.0" [label="foo - 1.0.0"];
	//   "bar - 2.1.0" [label="bar - 2.1.0"];
	//
	//   "foo - 1.0.0" -> "bar - 2.1.0";
	// }
}
