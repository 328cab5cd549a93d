package cli

import (
	"slices"
	"testing"

	"github.com/spf13/cobra"
)

func TestFlagValueCompletions(t *testing.T) {
	c := testCLI(t)
	graphCmd := c.graphCommand()
	serveCmd := c.serveCommand()

	tests := []struct {
		name string
		cmd  *cobra.Command
		flag string
		want []string
	}{
		{"graph format", graphCmd, "format", []string{"dot", "json", "svg", "png", "pdf"}},
		{"graph rankdir", graphCmd, "rankdir", []string{"TB", "LR", "BT", "RL"}},
		{"graph registry", graphCmd, "registry", []string{"postgres", "api", "index"}},
		{"serve registry", serveCmd, "registry", []string{"postgres", "api", "index"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := tt.cmd.GetFlagCompletionFunc(tt.flag)
			if !ok {
				t.Fatalf("no completion registered for --%s", tt.flag)
			}
			got, directive := fn(tt.cmd, nil, "")
			if !slices.Equal(got, tt.want) {
				t.Errorf("--%s completions = %v, want %v", tt.flag, got, tt.want)
			}
			if directive&cobra.ShellCompDirectiveNoFileComp == 0 {
				t.Errorf("--%s completion should not fall back to files", tt.flag)
			}
		})
	}
}

func TestCompleteKinds(t *testing.T) {
	tests := []struct {
		toComplete string
		want       []string
	}{
		{"", []string{"normal", "build", "dev"}},
		{"no", []string{"normal", "build", "dev"}},
		{"normal,", []string{"normal,build", "normal,dev"}},
		{"normal,build,d", []string{"normal,build,dev"}},
		{"normal,build,dev,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.toComplete, func(t *testing.T) {
			got, directive := completeKinds(nil, nil, tt.toComplete)
			if !slices.Equal(got, tt.want) {
				t.Errorf("completeKinds(%q) = %v, want %v", tt.toComplete, got, tt.want)
			}
			if directive&cobra.ShellCompDirectiveNoSpace == 0 {
				t.Error("kind completion should leave room for another kind")
			}
		})
	}
}
