package deps

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
	"github.com/matzehuels/cratedeps/pkg/observability"
	"github.com/matzehuels/cratedeps/pkg/registry"
	"github.com/matzehuels/cratedeps/pkg/version"
)

// Builder constructs transitive dependency graphs from a registry.
// A Builder may be shared; every build gets its own graph and resolver.
type Builder struct {
	reg  registry.Registry
	opts Options
}

// NewBuilder creates a Builder over reg.
func NewBuilder(reg registry.Registry, opts Options) *Builder {
	return &Builder{reg: reg, opts: opts.WithDefaults()}
}

// Build expands crate starting from its latest version.
func (b *Builder) Build(ctx context.Context, crate string) (*Result, error) {
	return b.run(ctx, crate, func(c *crawler) (graph.Key, error) {
		v, err := c.resolver.Latest(ctx, crate)
		if err != nil {
			return graph.Key{}, err
		}
		return graph.Key{Name: crate, Version: v.String()}, nil
	})
}

// BuildVersion expands crate starting from a pinned version, which must be
// published. An empty version behaves like Build.
func (b *Builder) BuildVersion(ctx context.Context, crate, ver string) (*Result, error) {
	if ver == "" {
		return b.Build(ctx, crate)
	}
	if _, err := semver.StrictNewVersion(ver); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid version %q", ver)
	}
	return b.run(ctx, crate, func(c *crawler) (graph.Key, error) {
		v, err := c.resolver.Resolve(ctx, crate, "="+ver)
		if err != nil {
			return graph.Key{}, err
		}
		return graph.Key{Name: crate, Version: v.String()}, nil
	})
}

// BuildManifest expands the dependencies declared by a local manifest.
// The manifest's package is the root vertex; it is not looked up in the
// registry.
func (b *Builder) BuildManifest(ctx context.Context, m *Manifest) (*Result, error) {
	var declared []registry.Dependency
	for _, d := range m.Dependencies {
		if b.opts.Kinds.Contains(d.Kind) {
			declared = append(declared, d)
		}
	}
	root := graph.Key{Name: m.Name, Version: m.Version}
	return b.run(ctx, m.Name, func(c *crawler) (graph.Key, error) {
		c.manifest, c.manifestDeps = true, declared
		return root, nil
	})
}

func (b *Builder) run(ctx context.Context, crate string, root func(*crawler) (graph.Key, error)) (*Result, error) {
	if crate == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "crate name must not be empty")
	}
	if b.opts.MaxDepth < 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "max depth must not be negative, got %d", b.opts.MaxDepth)
	}

	start := time.Now()
	observability.Build().OnBuildStart(ctx, crate)

	counter := &countingRegistry{Registry: b.reg}
	resolver := version.NewResolver(counter, version.Options{
		StableOnly: b.opts.StableOnly,
		Logger:     b.opts.Logger,
	})
	c := &crawler{
		ctx:      ctx,
		opts:     b.opts,
		reg:      counter,
		resolver: resolver,
		g:        graph.New(),
	}

	key, err := root(c)
	if err == nil {
		err = c.run(key)
	}

	res := &Result{Graph: c.g, Root: key, Skipped: c.skipped}
	res.Stats = Stats{
		Nodes:    c.g.NodeCount(),
		Edges:    c.g.EdgeCount(),
		Queries:  counter.queries,
		Skipped:  len(c.skipped),
		Duration: time.Since(start),
	}
	observability.Build().OnBuildComplete(ctx, crate, res.Stats.Nodes, res.Stats.Edges, res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	b.opts.Logger.Debug("graph built", "root", key, "nodes", res.Stats.Nodes, "edges", res.Stats.Edges,
		"queries", res.Stats.Queries, "skipped", res.Stats.Skipped, "took", res.Stats.Duration)
	return res, nil
}

// crawler performs one depth-first, pre-order traversal. The recursion
// "expand a vertex, then fully expand each new child before its next
// sibling" is kept on an explicit stack of frames so deep graphs cannot
// exhaust the goroutine stack.
type crawler struct {
	ctx      context.Context
	opts     Options
	reg      registry.Registry
	resolver *version.Resolver

	g       *graph.Graph
	stack   []frame
	skipped []Skipped

	manifest     bool                  // Root dependencies come from a local manifest
	manifestDeps []registry.Dependency // Declared dependencies of the manifest root
}

type frame struct {
	node  graph.NodeID
	key   graph.Key
	deps  []registry.Dependency
	next  int
	depth int
}

func (c *crawler) run(root graph.Key) error {
	if err := c.enter(root, 0); err != nil {
		return err
	}

	for len(c.stack) > 0 {
		if err := c.ctx.Err(); err != nil {
			return err
		}

		top := &c.stack[len(c.stack)-1]
		if top.next == len(top.deps) {
			c.stack = c.stack[:len(c.stack)-1]
			continue
		}
		dep := top.deps[top.next]
		top.next++
		parent, parentKey, depth := top.node, top.key, top.depth

		child, ok, err := c.resolve(parentKey, dep)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		id := c.g.GetOrCreate(child)
		added, err := c.g.AddEdge(parent, id)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "add edge %s -> %s", parentKey, child)
		}
		if !added {
			// Edge already recorded: the subtree behind it was expanded
			// from this parent before, or is being expanded right now.
			continue
		}
		if err := c.enter(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// enter creates the vertex for key and pushes a frame holding its
// dependencies, unless depth is beyond the configured bound.
func (c *crawler) enter(key graph.Key, depth int) error {
	if c.opts.MaxDepth > 0 && depth >= c.opts.MaxDepth {
		c.opts.Logger.Debug("depth limit reached", "crate", key, "depth", depth)
		return nil
	}
	id := c.g.GetOrCreate(key)

	var deps []registry.Dependency
	if depth == 0 && c.manifest {
		deps = c.manifestDeps
	} else {
		var err error
		deps, err = c.reg.ListDependencies(c.ctx, key.Name, key.Version, c.opts.Kinds)
		if err != nil {
			return errs.Wrap(errs.ErrCodeRegistryQuery, err, "list dependencies of %s", key)
		}
	}
	if len(deps) == 0 {
		c.opts.Logger.Warn("no dependencies found", "crate", key.Name, "version", key.Version, "depth", depth)
	} else {
		c.opts.Logger.Debug("expanding", "crate", key.Name, "version", key.Version, "depth", depth, "deps", len(deps))
	}

	c.stack = append(c.stack, frame{node: id, key: key, deps: deps, depth: depth})
	c.opts.OnExpand(Expansion{
		Key:          key,
		Depth:        depth,
		Dependencies: len(deps),
		Nodes:        c.g.NodeCount(),
		Edges:        c.g.EdgeCount(),
	})
	return nil
}

// resolve picks the concrete version of dep. With SkipUnresolvable set,
// requirement and matching failures are recorded and reported as ok=false;
// every other failure aborts the build.
func (c *crawler) resolve(parent graph.Key, dep registry.Dependency) (graph.Key, bool, error) {
	start := time.Now()
	v, err := c.resolver.Resolve(c.ctx, dep.Name, dep.Requirement)
	observability.Build().OnResolve(c.ctx, dep.Name, time.Since(start), err)

	if err == nil {
		return graph.Key{Name: dep.Name, Version: v.String()}, true, nil
	}
	if c.opts.SkipUnresolvable && errs.IsResolution(err) {
		c.opts.Logger.Warn("skipping unresolvable dependency",
			"crate", parent, "dependency", dep.Name, "req", dep.Requirement, "err", errs.UserMessage(err))
		c.skipped = append(c.skipped, Skipped{From: parent, Dependency: dep, Reason: errs.UserMessage(err)})
		return graph.Key{}, false, nil
	}
	if code := errs.GetCode(err); code != "" {
		return graph.Key{}, false, errs.Wrap(code, err, "resolve %s %q required by %s", dep.Name, dep.Requirement, parent)
	}
	return graph.Key{}, false, err
}

// countingRegistry counts queries for Stats.
type countingRegistry struct {
	registry.Registry
	queries int
}

func (r *countingRegistry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	r.queries++
	return r.Registry.ListVersions(ctx, crate)
}

func (r *countingRegistry) ListDependencies(ctx context.Context, crate, ver string, kinds registry.Kinds) ([]registry.Dependency, error) {
	r.queries++
	return r.Registry.ListDependencies(ctx, crate, ver, kinds)
}
