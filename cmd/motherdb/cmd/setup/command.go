// Package setup provides the setup command, which derives a consensus
// baseline from a fleet of units and saves it for an equipment type.
package setup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/cmd/constants"
	"github.com/agentstation/motherdb/internal/cmd/output"
	"github.com/agentstation/motherdb/internal/cmd/table"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/reconcile"
)

// Flags holds the setup command flags.
type Flags struct {
	DryRun   bool
	Strategy string
}

// Result is the structured output of the setup command.
type Result struct {
	reconcile.SetupResult `yaml:",inline"`

	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewCommand creates the setup command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "setup <equipment-type> <source> <source>...",
		GroupID: "core",
		Short:   "Build or refresh the baseline of an equipment type",
		Long: `Setup compares the given units, derives consensus candidates and reconciles
them with the stored baseline of the equipment type:

• New parameters are added
• Candidates agreeing with the stored value are refreshed
• Conflicts are decided by confidence: UPDATE, KEEP, or REVIEW
• REVIEW conflicts are settled by the chosen strategy

Entries are saved one at a time; a failed save does not undo earlier ones.`,
		Example: `  motherdb setup ETCH-300 dumps/*.csv
  motherdb setup ETCH-300 dumps/*.csv --dry-run
  motherdb setup ETCH-300 dumps/*.csv --strategy prefer-existing`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "show what would change without saving")
	cmd.Flags().StringVar(&flags.Strategy, "strategy", "", "strategy for REVIEW conflicts: confidence, prefer-existing, prefer-new (default from config)")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, equipmentTypeID string, ids []string) error {
	ctx := logging.WithEquipmentType(cmd.Context(), equipmentTypeID)
	logger := app.Logger()

	var opts []motherdb.Option
	if flags.Strategy != "" {
		strategy := reconcile.StrategyByName(flags.Strategy)
		if strategy == nil {
			return errors.NewValidationError("strategy", flags.Strategy, "must be one of confidence, prefer-existing, prefer-new")
		}
		opts = append(opts, motherdb.WithReconcileOptions(reconcile.WithStrategy(strategy)))
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
		return errors.NewLoadError("setup", "no source could be loaded", errors.Join(tbl.Errors...))
	}

	var result *reconcile.SetupResult
	if flags.DryRun {
		result = client.PreviewSetup(ctx, tbl, equipmentTypeID)
	} else {
		result = client.QuickSetup(ctx, tbl, equipmentTypeID)
	}

	logger.Info().
		Str("equipment_type", equipmentTypeID).
		Int("candidates", result.TotalCandidates).
		Int("conflicts", result.ConflictCount).
		Int("saved", result.SavedCount).
		Bool("dry_run", flags.DryRun).
		Msg("Setup complete")

	if err := printResult(cmd, app, result, flags.DryRun); err != nil {
		return err
	}

	if !result.IsSuccess() {
		for _, e := range result.Errors {
			logger.Error().Err(e).Msg("Setup error")
		}
		return fmt.Errorf("setup of %s finished with %d error(s): %w", equipmentTypeID, len(result.Errors), result.Errors[0])
	}
	return nil
}

func printResult(cmd *cobra.Command, app appcontext.Interface, result *reconcile.SetupResult, dryRun bool) error {
	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)
	w := cmd.OutOrStdout()

	if !constants.IsTable(string(format)) {
		return formatter.Format(w, Result{SetupResult: *result, Errors: result.ErrorMessages()})
	}

	sections := []struct {
		title string
		data  table.Data
		show  bool
	}{
		{"Candidates", table.CandidatesToTableData(result.Candidates, false), len(result.Candidates) > 0},
		{"Conflicts", table.ConflictsToTableData(result.Conflicts), len(result.Conflicts) > 0},
		{"Changes", table.ChangesetToTableData(result.Changeset), result.Changeset != nil && result.Changeset.HasChanges()},
	}
	for _, s := range sections {
		if !s.show {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", s.title)
		if err := formatter.Format(w, s.data); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}

	if dryRun {
		_, _ = fmt.Fprintf(w, "Dry run: %d candidates, %d conflicts, nothing saved for %s\n",
			result.TotalCandidates, result.ConflictCount, result.EquipmentTypeID)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Saved %d of %d candidates for %s (%d conflicts)\n",
		result.SavedCount, result.TotalCandidates, result.EquipmentTypeID, result.ConflictCount)
	return nil
}
