package deps_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

func ExampleBuilder_Build() {
	reg := registry.NewMemory().
		Add("app", "1.0.0", registry.Dep("log", "^0.4"), registry.Dep("cfg-if", "1")).
		Add("log", "0.4.20", registry.Dep("cfg-if", "^1.0")).
		Add("log", "0.4.22", registry.Dep("cfg-if", "^1.0")).
		Add("cfg-if", "1.0.0")

	res, err := deps.NewBuilder(reg, deps.Options{}).Build(context.Background(), "app")
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range res.Graph.Edges() {
		fmt.Println(res.Graph.Nodes()[e.From].Key, "->", res.Graph.Nodes()[e.To].Key)
	}
	// Output:
	// app - 1.0.0 -> log - 0.4.22
	// log - 0.4.22 -> cfg-if - 1.0.0
	// app - 1.0.0 -> cfg-if - 1.0.0
}

func ExampleOptions_WithDefaults() {
	opts := deps.Options{MaxDepth: 3}.WithDefaults()
	fmt.Println("MaxDepth:", opts.MaxDepth)
	fmt.Println("Kinds:", opts.Kinds)
	// Output:
	// MaxDepth: 3
	// Kinds: normal,build
}
