// Package candidates provides the candidates command.
package candidates

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/cmd/constants"
	"github.com/agentstation/motherdb/internal/cmd/output"
	"github.com/agentstation/motherdb/internal/cmd/table"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/errors"
)

// Flags holds the candidates command flags.
type Flags struct {
	MinOccurrence float64
	MinConfidence float64
	Rejected      bool
}

// NewCommand creates the candidates command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "candidates <source> <source>...",
		GroupID: "core",
		Short:   "Derive consensus baseline candidates",
		Long: `Candidates compares the given units and proposes, for every parameter, the
value most units agree on. Each candidate is scored by how often its value
occurs and how concentrated the value distribution is. Candidates below
the occurrence or confidence threshold are rejected.`,
		Example: `  motherdb candidates dumps/*.csv
  motherdb candidates dumps/*.csv --min-confidence 0.6 --rejected`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	cmd.Flags().Float64Var(&flags.MinOccurrence, "min-occurrence", 0, "minimum occurrence rate in [0, 1] (default from config)")
	cmd.Flags().Float64Var(&flags.MinConfidence, "min-confidence", 0, "minimum confidence score in [0, 1] (default from config)")
	cmd.Flags().BoolVar(&flags.Rejected, "rejected", false, "also show rejected candidates and why")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, ids []string) error {
	ctx := cmd.Context()
	logger := app.Logger()

	var opts []motherdb.Option
	occurrence, confidence := cmd.Flags().Changed("min-occurrence"), cmd.Flags().Changed("min-confidence")
	if occurrence || confidence {
		th := consensus.DefaultThresholds()
		if occurrence {
			th.MinOccurrenceRate = flags.MinOccurrence
		}
		if confidence {
			th.ConfidenceThreshold = flags.MinConfidence
		}
		opts = append(opts, motherdb.WithThresholds(th))
	}

	client, err := app.ClientWithOptions(ctx, opts...)
	if err != nil {
		return err
	}

	tbl := client.CompareSources(ctx, ids, false)
	for _, e := range tbl.Errors {
		logger.Warn().Err(e).Msg("Skipped during comparison")
	}
	if len(tbl.Sources) == 0 {
		return errors.NewLoadError("candidates", "no source could be loaded", errors.Join(tbl.Errors...))
	}

	analysis := client.AnalyzeCandidates(tbl)
	logger.Info().
		Int("accepted", len(analysis.Candidates)).
		Int("rejected", len(analysis.Rejected)).
		Msg("Candidate analysis complete")

	if !flags.Rejected {
		analysis.Rejected = nil
	}

	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)
	w := cmd.OutOrStdout()

	if !constants.IsTable(string(format)) {
		return formatter.Format(w, analysis)
	}

	if err := formatter.Format(w, table.CandidatesToTableData(analysis.Candidates, false)); err != nil {
		return err
	}
	if flags.Rejected && len(analysis.Rejected) > 0 {
		_, _ = fmt.Fprintln(w, "\nRejected:")
		return formatter.Format(w, table.CandidatesToTableData(analysis.Rejected, true))
	}
	return nil
}
