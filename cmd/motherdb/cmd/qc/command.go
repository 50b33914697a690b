// Package qc provides the qc command, which validates one parameter dump and
// optionally exports the findings as an HTML, CSV or Markdown report.
package qc

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/cmd/constants"
	"github.com/agentstation/motherdb/internal/cmd/output"
	"github.com/agentstation/motherdb/internal/cmd/table"
	pkgconstants "github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/records"
	"github.com/agentstation/motherdb/pkg/report"
)

// Flags holds the qc command flags.
type Flags struct {
	Mode          string
	Reference     string
	EquipmentType string
	Report        string
	Out           string
	FailOnError   bool
}

// NewCommand creates the qc command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "qc <source>",
		GroupID: "core",
		Short:   "Quality-check a parameter dump",
		Long: `QC validates the records of one unit.

Basic checks cover missing values, unparseable numbers, spec bound
violations and type mismatches. Advanced checks add statistical outliers,
sequence gaps and correlations, plus, when a reference is given, a
consistency check that reports parameters missing from the dump or absent
from the reference.

The reference is either another dump (--reference) or the stored baseline
of an equipment type (--equipment-type). In every mode it supplies spec
bounds; only advanced mode compares parameter names against it.`,
		Example: `  motherdb qc unit-a.csv
  motherdb qc unit-a.csv --equipment-type ETCH-300 --mode advanced
  motherdb qc unit-a.csv --reference golden.csv --report html --out qc.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.Mode, "mode", "m", "auto", "validation mode: basic, advanced, auto")
	cmd.Flags().StringVar(&flags.Reference, "reference", "", "reference dump supplying spec bounds, and expected names in advanced mode")
	cmd.Flags().StringVarP(&flags.EquipmentType, "equipment-type", "e", "", "validate against the stored baseline of this equipment type")
	cmd.Flags().StringVar(&flags.Report, "report", "", "export a report: html, csv, markdown")
	cmd.Flags().StringVar(&flags.Out, "out", "", "report file (default stdout)")
	cmd.Flags().BoolVar(&flags.FailOnError, "fail-on-error", false, "exit non-zero when any parameter fails")
	cmd.MarkFlagsMutuallyExclusive("reference", "equipment-type")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, source string) error {
	ctx := cmd.Context()
	logger := app.Logger()

	mode, err := qc.ParseMode(flags.Mode)
	if err != nil {
		return err
	}
	var reportFormat report.Format
	if flags.Report != "" {
		if reportFormat, err = report.ParseFormat(flags.Report); err != nil {
			return err
		}
	}

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	recs, err := load(cmd, client, source)
	if err != nil {
		return err
	}

	var result *qc.Result
	switch {
	case flags.EquipmentType != "":
		result, err = client.PerformQCAgainst(ctx, recs, mode, flags.EquipmentType)
		if err != nil {
			return err
		}
	case flags.Reference != "":
		reference, err := load(cmd, client, flags.Reference)
		if err != nil {
			return err
		}
		result = client.PerformQC(ctx, recs, mode, reference)
	default:
		result = client.PerformQC(ctx, recs, mode, nil)
	}

	logResult(logger, source, result)

	if flags.Report != "" {
		if err := writeReport(cmd, client, result, reportFormat, flags.Out); err != nil {
			return err
		}
	} else if err := printResult(cmd, app, result); err != nil {
		return err
	}

	if flags.FailOnError && result.FailedCount > 0 {
		return fmt.Errorf("qc of %s: %d of %d parameters failed", source, result.FailedCount, result.TotalParameters)
	}
	return nil
}

// load reads the records of one source.
func load(cmd *cobra.Command, client motherdb.Client, source string) ([]records.ParameterRecord, error) {
	datasets, errs := client.Load(cmd.Context(), []string{source})
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if len(datasets) == 0 {
		return nil, errors.NewLoadError(source, "no records", nil)
	}
	return datasets[0].Records, nil
}

func logResult(logger *zerolog.Logger, source string, result *qc.Result) {
	logger.Info().
		Str("source", source).
		Str("mode", string(result.Mode)).
		Int("parameters", result.TotalParameters).
		Int("passed", result.PassedCount).
		Int("failed", result.FailedCount).
		Int("warnings", result.WarningCount).
		Msg("QC complete")
}

func writeReport(cmd *cobra.Command, client motherdb.Client, result *qc.Result, format report.Format, path string) error {
	content, err := client.ExportReport(result, format)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), pkgconstants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func printResult(cmd *cobra.Command, app appcontext.Interface, result *qc.Result) error {
	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)
	w := cmd.OutOrStdout()

	if !constants.IsTable(string(format)) {
		return formatter.Format(w, result)
	}

	if err := formatter.Format(w, table.QCSummaryToTableData(result)); err != nil {
		return err
	}
	if len(result.Issues) == 0 {
		_, _ = fmt.Fprintln(w, "\nNo issues found.")
		return nil
	}
	_, _ = fmt.Fprintln(w, "\nIssues:")
	return formatter.Format(w, table.IssuesToTableData(result.Issues, format == output.FormatWide))
}
