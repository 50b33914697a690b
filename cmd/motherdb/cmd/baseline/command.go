// Package baseline provides the baseline command for inspecting stored
// baselines.
package baseline

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/cmd/constants"
	"github.com/agentstation/motherdb/internal/cmd/output"
	"github.com/agentstation/motherdb/internal/cmd/table"
	"github.com/agentstation/motherdb/internal/matcher"
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/errors"
)

// NewCommand creates the baseline command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "baseline",
		GroupID: "management",
		Short:   "Inspect stored baselines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newShowCommand(app))
	return cmd
}

func newShowCommand(app appcontext.Interface) *cobra.Command {
	var param, match string

	cmd := &cobra.Command{
		Use:   "show <equipment-type>",
		Short: "Show the stored baseline of an equipment type",
		Example: `  motherdb baseline show ETCH-300
  motherdb baseline show ETCH-300 --parameter Temp -o yaml
  motherdb baseline show ETCH-300 --match '^Gas\d+_Flow$'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := app.Client(ctx)
			if err != nil {
				return err
			}

			existing, err := client.Baseline(ctx, args[0])
			if err != nil {
				return err
			}
			if len(existing) == 0 {
				return errors.NewNotFoundError("baseline", args[0])
			}

			entries := baseline.Sorted(existing)
			if param != "" {
				entry, ok := existing[param]
				if !ok {
					return errors.NewNotFoundError("parameter", param)
				}
				entries = []baseline.Entry{entry}
			}
			if match != "" {
				m, err := matcher.New(matcher.Auto, match)
				if err != nil {
					return errors.NewValidationError("match", match, err.Error())
				}
				entries = matcher.Filter(m, entries, func(e baseline.Entry) string { return e.ParameterName })
			}

			app.Logger().Debug().Str("equipment_type", args[0]).Int("entries", len(entries)).Msg("Loaded baseline")

			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)
			if constants.IsTable(string(format)) {
				return formatter.Format(cmd.OutOrStdout(), table.BaselineToTableData(entries))
			}
			return formatter.Format(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVarP(&param, "parameter", "p", "", "show a single parameter")
	cmd.Flags().StringVar(&match, "match", "", "only show parameters matching a glob or regex pattern")
	cmd.MarkFlagsMutuallyExclusive("parameter", "match")

	return cmd
}
