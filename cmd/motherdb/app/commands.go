package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb/cmd/motherdb/cmd/baseline"
	"github.com/agentstation/motherdb/cmd/motherdb/cmd/candidates"
	"github.com/agentstation/motherdb/cmd/motherdb/cmd/compare"
	"github.com/agentstation/motherdb/cmd/motherdb/cmd/completion"
	"github.com/agentstation/motherdb/cmd/motherdb/cmd/qc"
	"github.com/agentstation/motherdb/cmd/motherdb/cmd/serve"
	"github.com/agentstation/motherdb/cmd/motherdb/cmd/setup"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(compare.NewCommand(a))
	rootCmd.AddCommand(candidates.NewCommand(a))
	rootCmd.AddCommand(setup.NewCommand(a))
	rootCmd.AddCommand(qc.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(baseline.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
	rootCmd.AddCommand(completion.NewCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the motherdb CLI.`,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "motherdb version %s\n", a.version)
			_, _ = fmt.Fprintf(w, "commit: %s\n", a.commit)
			_, _ = fmt.Fprintf(w, "built: %s\n", a.date)
			_, _ = fmt.Fprintf(w, "built by: %s\n", a.builtBy)
			_, _ = fmt.Fprintf(w, "go version: %s\n", runtime.Version())
			_, _ = fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
