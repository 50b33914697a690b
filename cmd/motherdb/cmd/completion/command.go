// Package completion provides the completion command, which prints shell
// completion scripts.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Shells lists the shells a completion script can be generated for.
var Shells = []string{"bash", "zsh", "fish", "powershell"}

// NewCommand creates the completion command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate the autocompletion script for the given shell.

Bash:

  $ source <(motherdb completion bash)

  # To load completions for each session, execute once:
  $ motherdb completion bash > /etc/bash_completion.d/motherdb

Zsh:

  $ motherdb completion zsh > "${fpath[1]}/_motherdb"

Fish:

  $ motherdb completion fish > ~/.config/fish/completions/motherdb.fish

PowerShell:

  PS> motherdb completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             Shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}
