package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/deps"
	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/export"
	"github.com/matzehuels/cratedeps/pkg/registry"
	"github.com/matzehuels/cratedeps/pkg/store"
)

// graphFlags holds the graph command's flag values.
type graphFlags struct {
	crate            string
	version          string
	manifest         string
	output           string
	format           string
	maxDepth         int
	kinds            string
	skipUnresolvable bool
	stableOnly       bool
	rankDir          string
	markCycles       bool
	save             bool
	noProgress       bool
	registry         registryFlags
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var f graphFlags

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the dependency graph of a crate",
		Long: `Build the transitive dependency graph of a crate and write it to a file.

The root is the latest published version of the crate unless --version pins
one. Every dependency requirement is resolved to the highest matching
version, and each crate version appears once no matter how many crates
depend on it. The output format follows the file extension unless --format
is given.`,
		Example: `  # Latest serde, full graph as DOT
  cratedeps graph -c serde -o serde.dot

  # Two levels of tokio, normal dependencies only, rendered to SVG
  cratedeps graph -c tokio --max-depth 2 --kinds normal -o tokio.svg

  # Dependencies of a local crate
  cratedeps graph --manifest ./Cargo.toml -o local.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.crate, "crate", "c", "", "root crate name")
	fl.StringVar(&f.version, "version", "", "root crate version (default: latest)")
	fl.StringVarP(&f.manifest, "manifest", "m", "", "use a local Cargo.toml as the root instead of --crate")
	fl.StringVarP(&f.output, "output", "o", "", "output file (required)")
	fl.StringVarP(&f.format, "format", "f", "", "output format: dot, json, svg, png, pdf (default: from extension)")
	fl.IntVar(&f.maxDepth, "max-depth", -1, "maximum traversal depth, 0 for unbounded (default from config)")
	fl.StringVar(&f.kinds, "kinds", "", "dependency kinds to follow, e.g. normal,build (default from config)")
	fl.BoolVar(&f.skipUnresolvable, "skip-unresolvable", false, "skip dependencies that cannot be resolved instead of failing")
	fl.BoolVar(&f.stableOnly, "stable-only", false, "root at the newest release, skipping newer pre-releases")
	fl.StringVar(&f.rankDir, "rankdir", "", "graph direction: TB, LR, BT or RL")
	fl.BoolVar(&f.markCycles, "mark-cycles", false, "draw dependency cycles in red")
	fl.BoolVar(&f.save, "store", false, "save the run to the run store")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the live progress view")
	addRegistryFlags(cmd, &f.registry)
	registerGraphCompletions(cmd)

	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsMutuallyExclusive("crate", "manifest")
	cmd.MarkFlagsMutuallyExclusive("version", "manifest")

	return cmd
}

// addRegistryFlags registers the registry selection flags shared by graph and serve.
func addRegistryFlags(cmd *cobra.Command, f *registryFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.backend, "registry", "", "registry backend: postgres, api or index")
	fl.StringVar(&f.databaseURL, "database-url", "", "postgres DSN of a crates.io database dump (default $DATABASE_URL)")
	fl.StringVar(&f.index, "index", "", "crates.io index checkout directory or sparse index URL")
	fl.BoolVar(&f.includeYanked, "include-yanked", false, "consider yanked versions (api and index registries)")
	fl.BoolVar(&f.noCache, "no-cache", false, "bypass the registry response cache")
}

// buildOptions merges config defaults with explicit flags.
func (c *CLI) buildOptions(cmd graphFlags) (deps.Options, error) {
	b := c.cfg.Build
	opts := deps.Options{
		MaxDepth:         b.MaxDepth,
		SkipUnresolvable: b.SkipUnresolvable || cmd.skipUnresolvable,
		StableOnly:       b.StableOnly || cmd.stableOnly,
		Logger:           c.Logger,
	}
	if cmd.maxDepth >= 0 {
		opts.MaxDepth = cmd.maxDepth
	}

	kinds, err := c.cfg.Kinds()
	if err != nil {
		return opts, err
	}
	if cmd.kinds != "" {
		if kinds, err = registry.ParseKinds(cmd.kinds); err != nil {
			return opts, errs.Wrap(errs.ErrCodeInvalidInput, err, "--kinds")
		}
	}
	opts.Kinds = kinds
	return opts, nil
}

// exportOptions merges config defaults with explicit flags.
func (c *CLI) exportOptions(f graphFlags) export.Options {
	opts := export.Options{RankDir: c.cfg.Export.RankDir, MarkCycles: c.cfg.Export.MarkCycles || f.markCycles}
	if f.rankDir != "" {
		opts.RankDir = f.rankDir
	}
	return opts
}

// validateGraphFlags checks everything that can fail before the registry
// is touched, so bad flags never cost a traversal.
func validateGraphFlags(f graphFlags) (format string, err error) {
	if f.crate == "" && f.manifest == "" {
		return "", errs.New(errs.ErrCodeInvalidInput, "one of --crate or --manifest is required")
	}
	if f.crate != "" {
		if err := errs.ValidateCrateName(f.crate); err != nil {
			return "", err
		}
	}
	if f.maxDepth < -1 {
		return "", errs.New(errs.ErrCodeInvalidInput, "--max-depth must be >= 0, got %d", f.maxDepth)
	}
	if f.format == "" {
		return export.FormatFromPath(f.output), nil
	}
	return export.ParseFormat(f.format)
}

func (c *CLI) runGraph(ctx context.Context, f graphFlags) error {
	logger := loggerFromContext(ctx)

	format, err := validateGraphFlags(f)
	if err != nil {
		return err
	}
	opts, err := c.buildOptions(f)
	if err != nil {
		return err
	}

	var manifest *deps.Manifest
	if f.manifest != "" {
		if manifest, err = deps.ParseManifest(f.manifest); err != nil {
			return err
		}
	}

	reg, err := c.openRegistry(ctx, f.registry)
	if err != nil {
		return err
	}
	defer reg.Close()

	prog := newProgress(logger)
	build := func(ctx context.Context, opts deps.Options) (*deps.Result, error) {
		b := deps.NewBuilder(reg, opts)
		switch {
		case manifest != nil:
			return b.BuildManifest(ctx, manifest)
		case f.version != "":
			return b.BuildVersion(ctx, f.crate, f.version)
		default:
			return b.Build(ctx, f.crate)
		}
	}

	interactive := c.useProgressView(f)
	var res *deps.Result
	if interactive {
		res, err = runWithProgress(ctx, rootLabel(f, manifest), opts, build)
	} else {
		opts.OnExpand = func(e deps.Expansion) {
			logger.Debug("expanded", "crate", e.Key, "depth", e.Depth, "deps", e.Dependencies)
		}
		res, err = build(ctx, opts)
	}
	if err != nil {
		return err
	}

	var sp *Spinner
	if interactive && format != export.FormatDOT && format != export.FormatJSON {
		sp = newSpinnerWithContext(ctx, "Rendering "+format+"...")
		sp.Start()
	}
	err = export.Write(ctx, res.Graph, f.output, format, c.exportOptions(f))
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built graph of %s", res.Root))

	printSuccess("Wrote %s graph of %s", format, StyleHighlight.Render(res.Root.String()))
	printFile(f.output)
	printStats(res.Stats)
	printSkipped(res.Skipped)
	if format == export.FormatDOT {
		printNextStep("Render it", fmt.Sprintf("dot -Tsvg %s -o graph.svg", f.output))
	}

	if f.save {
		if err := c.saveRun(ctx, res, reg.Name(), opts); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) saveRun(ctx context.Context, res *deps.Result, registryName string, opts deps.Options) error {
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rec := store.NewRecord(res, registryName, opts)
	if err := s.Save(ctx, rec); err != nil {
		return err
	}
	printKeyValue("Run", rec.ID)
	return nil
}

// useProgressView reports whether the live view can draw: stderr must be a
// terminal and debug logging would otherwise interleave with it.
func (c *CLI) useProgressView(f graphFlags) bool {
	if f.noProgress || c.Logger.GetLevel() <= LogDebug {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func rootLabel(f graphFlags, m *deps.Manifest) string {
	switch {
	case m != nil:
		return m.Name
	case f.version != "":
		return f.crate + " " + f.version
	default:
		return f.crate
	}
}
