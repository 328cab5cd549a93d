package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The config file, .env and environment are loaded before any subcommand
// runs, so subcommands read settings from c.cfg and only apply their own
// flags on top.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "cratedeps builds the transitive dependency graph of a Rust crate",
		Long:          `cratedeps resolves every dependency of a crate against a crates.io registry (database dump, web API or index) and writes the resulting graph as DOT, JSON, SVG, PNG or PDF.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cratedeps/config.toml)")
	_ = root.MarkPersistentFlagFilename("config", "toml")

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
