// Package compare provides the compare command.
package compare

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/cmd/constants"
	"github.com/agentstation/motherdb/internal/cmd/output"
	"github.com/agentstation/motherdb/internal/cmd/table"
	"github.com/agentstation/motherdb/internal/matcher"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/errors"
)

// Flags holds the compare command flags.
type Flags struct {
	DifferentOnly bool
	Rows          bool
	SummaryOnly   bool
	NoCache       bool
	Match         string
}

// Result is the structured output of the compare command.
type Result struct {
	Sources []string        `json:"sources" yaml:"sources"`
	Summary compare.Summary `json:"summary" yaml:"summary"`
	Rows    []compare.Row   `json:"rows" yaml:"rows"`
	Errors  []string        `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewCommand creates the compare command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "compare <source> <source>...",
		GroupID: "core",
		Short:   "Compare parameter dumps across units",
		Long: `Compare loads one parameter dump per unit and lines them up parameter by
parameter. A parameter is different when its units disagree on the value;
the most frequent value is reported as the common value.

Sources that cannot be loaded are skipped and reported.`,
		Example: `  motherdb compare unit-a.csv unit-b.csv unit-c.csv
  motherdb compare dumps/*.csv --different-only
  motherdb compare dumps/*.csv --rows -o json
  motherdb compare dumps/*.csv --match 'Temp_*'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	cmd.Flags().BoolVarP(&flags.DifferentOnly, "different-only", "d", false, "show only parameters whose values differ")
	cmd.Flags().BoolVar(&flags.Rows, "rows", false, "show one row per parameter and source instead of one column per source")
	cmd.Flags().BoolVar(&flags.SummaryOnly, "summary", false, "show only the difference summary")
	cmd.Flags().BoolVar(&flags.NoCache, "no-cache", false, "bypass the comparison cache")
	cmd.Flags().StringVar(&flags.Match, "match", "", "only show parameters matching a glob or regex pattern")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, ids []string) error {
	ctx := cmd.Context()
	logger := app.Logger()

	var m matcher.Matcher
	if flags.Match != "" {
		var err error
		if m, err = matcher.New(matcher.Auto, flags.Match); err != nil {
			return errors.NewValidationError("match", flags.Match, err.Error())
		}
	}

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	tbl := client.CompareSources(ctx, ids, !flags.NoCache)
	for _, e := range tbl.Errors {
		logger.Warn().Err(e).Msg("Skipped during comparison")
	}
	if len(tbl.Sources) == 0 {
		return errors.NewLoadError("compare", "no source could be loaded", errors.Join(tbl.Errors...))
	}

	summary := client.DifferenceSummary(tbl)
	shown := tbl
	if flags.DifferentOnly {
		shown = differentOnly(tbl)
	}
	if m != nil {
		shown = &compare.Table{
			Sources: shown.Sources,
			Rows:    matcher.Filter(m, shown.Rows, func(r compare.Row) string { return r.ParameterName }),
		}
	}

	logger.Info().
		Int("sources", len(tbl.Sources)).
		Int("parameters", summary.Total).
		Int("different", summary.Different).
		Msg("Comparison complete")

	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)
	w := cmd.OutOrStdout()

	if !constants.IsTable(string(format)) {
		result := Result{
			Sources: tbl.Sources,
			Summary: summary,
			Rows:    shown.Rows,
			Errors:  errors.Messages(tbl.Errors),
		}
		if flags.SummaryOnly {
			result.Rows = nil
		}
		return formatter.Format(w, result)
	}

	if !flags.SummaryOnly {
		data := table.PivotToTableData(shown)
		if flags.Rows || format == output.FormatWide {
			data = table.RowsToTableData(shown)
		}
		if err := formatter.Format(w, data); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	return formatter.Format(w, table.SummaryToTableData(summary))
}

// differentOnly keeps the rows of differing parameters.
func differentOnly(t *compare.Table) *compare.Table {
	out := &compare.Table{Sources: t.Sources}
	for _, r := range t.Rows {
		if r.IsDifferent {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
