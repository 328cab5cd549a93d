package deps

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/graph"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Options configures a graph build.
type Options struct {
	MaxDepth         int             // Maximum depth to expand, root is depth 0 (0: unbounded)
	Kinds            registry.Kinds  // Dependency kinds to follow (default: normal, build)
	SkipUnresolvable bool            // Skip dependencies that fail to resolve instead of aborting
	StableOnly       bool            // Root defaults to the newest release instead of the highest version
	Logger           *log.Logger     // Diagnostics (default: log.Default())
	OnExpand         func(Expansion) // Progress callback, called once per expanded vertex
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if len(opts.Kinds) == 0 {
		opts.Kinds = registry.DefaultKinds()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.OnExpand == nil {
		opts.OnExpand = func(Expansion) {}
	}
	return opts
}

// Expansion reports one vertex whose dependencies were just listed.
type Expansion struct {
	Key          graph.Key // Vertex being expanded
	Depth        int       // Distance from the root
	Dependencies int       // Declared dependencies of the accepted kinds
	Nodes        int       // Vertices in the graph so far
	Edges        int       // Edges in the graph so far
}

// Skipped records a dependency dropped because it could not be resolved.
// Only produced when Options.SkipUnresolvable is set.
type Skipped struct {
	From       graph.Key           `json:"from"`
	Dependency registry.Dependency `json:"dependency"`
	Reason     string              `json:"reason"`
}

// Stats summarizes the work done by a build.
type Stats struct {
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Queries  int           `json:"queries"` // Registry queries issued
	Skipped  int           `json:"skipped"` // Dependencies dropped by SkipUnresolvable
	Duration time.Duration `json:"duration"`
}

// Result is a finished dependency graph.
type Result struct {
	Graph   *graph.Graph
	Root    graph.Key
	Stats   Stats
	Skipped []Skipped
}
