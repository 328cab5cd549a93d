package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/config"
	"github.com/matzehuels/cratedeps/pkg/export"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

var (
	kindNames = []string{string(registry.KindNormal), string(registry.KindBuild), string(registry.KindDev)}
	rankDirs  = []string{"TB", "LR", "BT", "RL"}
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for cratedeps.

Besides subcommands and flag names, the scripts complete the values of
--format, --kinds, --rankdir and --registry, and suggest .toml files for
--manifest and --config.

Bash:
  $ source <(cratedeps completion bash)

Zsh:
  $ cratedeps completion zsh > "${fpath[1]}/_cratedeps"

Fish:
  $ cratedeps completion fish > ~/.config/fish/completions/cratedeps.fish

PowerShell:
  PS> cratedeps completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// registerGraphCompletions wires value completion for the graph command's flags.
func registerGraphCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", fixedValues(export.Formats))
	_ = cmd.RegisterFlagCompletionFunc("rankdir", fixedValues(rankDirs))
	_ = cmd.RegisterFlagCompletionFunc("kinds", completeKinds)
	_ = cmd.MarkFlagFilename("manifest", "toml")
	registerRegistryCompletions(cmd)
}

// registerRegistryCompletions wires value completion for the shared registry flags.
func registerRegistryCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("registry", fixedValues(config.Backends))
}

func fixedValues(values []string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeKinds completes the last element of a comma separated kind list,
// offering only kinds not already listed.
func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	seen := map[string]bool{}
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		for _, k := range strings.Split(toComplete[:i], ",") {
			seen[strings.TrimSpace(k)] = true
		}
	}

	var out []string
	for _, k := range kindNames {
		if !seen[k] {
			out = append(out, prefix+k)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
