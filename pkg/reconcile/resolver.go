package reconcile

import (
	"context"
	"slices"
	"time"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/differ"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
)

// Resolver runs quick setup against a baseline store.
type Resolver struct {
	store             baseline.Store
	policy            Policy
	thresholds        consensus.Thresholds
	strategy          Strategy
	dryRun            bool
	requireRegistered bool
}

// New creates a Resolver with options.
func New(store baseline.Store, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, &errors.ValidationError{
			Field:   "store",
			Message: "cannot be nil",
		}
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		store:             store,
		policy:            o.policy,
		thresholds:        o.thresholds,
		strategy:          o.strategy,
		dryRun:            o.dryRun,
		requireRegistered: o.requireRegistered,
	}, nil
}

// Policy returns the conflict policy in use.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// QuickSetup analyzes the table, resolves conflicts with the stored baseline
// and upserts every candidate not resolved to KEEP. Failures are reported in
// the result. Entries are saved in one batch; if the batch fails each entry
// is retried alone so the ones that can be saved still are.
func (r *Resolver) QuickSetup(ctx context.Context, table *compare.Table, equipmentTypeID string) *SetupResult {
	ctx = logging.WithEquipmentType(ctx, equipmentTypeID)
	logger := logging.FromContext(ctx)

	result := &SetupResult{
		EquipmentTypeID: equipmentTypeID,
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			Strategy:  r.strategy.Name(),
			DryRun:    r.dryRun,
		},
	}
	if table != nil {
		result.Metadata.Sources = slices.Clone(table.Sources)
	}

	// Step 1: Validate the target
	if equipmentTypeID == "" {
		result.Errors = append(result.Errors, errors.NewValidationError("equipment_type_id", equipmentTypeID, "cannot be empty"))
		return result.finish()
	}
	if r.requireRegistered {
		ok, err := r.store.Registered(ctx, equipmentTypeID)
		if err != nil {
			result.Errors = append(result.Errors, asPersistence("get", equipmentTypeID, err))
			return result.finish()
		}
		if !ok {
			result.Errors = append(result.Errors, errors.NewConfigurationError(
				"baseline", "no baseline registered for equipment type "+equipmentTypeID, nil))
			return result.finish()
		}
	}

	// Step 2: Derive candidates
	analysis := consensus.Analyze(table, r.thresholds)
	result.Candidates = analysis.Candidates
	result.Rejected = analysis.Rejected
	result.TotalCandidates = len(analysis.Candidates)

	// Step 3: Load the stored baseline
	existing, err := r.store.GetExisting(ctx, equipmentTypeID)
	if err != nil {
		result.Errors = append(result.Errors, asPersistence("get", equipmentTypeID, err))
		return result.finish()
	}

	// Step 4: Detect and settle conflicts
	result.Conflicts = Resolve(r.policy.Detect(analysis.Candidates, existing), r.strategy)
	result.ConflictCount = len(result.Conflicts)

	keep := make(map[string]bool)
	for _, c := range result.Conflicts {
		if c.Action == ActionSkip {
			keep[c.ParameterName] = true
		}
	}

	now := time.Now().UTC()
	var entries []baseline.Entry
	for _, c := range analysis.Candidates {
		if keep[c.ParameterName] {
			continue
		}
		entries = append(entries, baseline.Entry{
			ParameterName: c.ParameterName,
			Value:         c.CandidateValue,
			Confidence:    c.ConfidenceScore,
			MinSpec:       c.MinSpec,
			MaxSpec:       c.MaxSpec,
			UpdatedAt:     now,
		})
	}

	// Step 5: Preview the change
	result.Changeset = differ.New(differ.WithRemovals(false)).Entries(baseline.Sorted(existing), entries)

	logger.Info().
		Int("candidates", result.TotalCandidates).
		Int("conflicts", result.ConflictCount).
		Int("changes", result.Changeset.Summary.TotalChanges).
		Bool("dry_run", r.dryRun).
		Msg("quick setup resolved")

	if r.dryRun {
		return result.finish()
	}

	// Step 6: Save in one batch; on failure retry per entry so the good ones survive
	if len(entries) == 0 {
		return result.finish()
	}
	err = r.store.Save(ctx, equipmentTypeID, entries)
	if err == nil {
		result.SavedCount = len(entries)
		return result.finish()
	}
	logger.Warn().Err(err).Int("entries", len(entries)).Msg("batch save failed, saving entries one at a time")
	for _, e := range entries {
		if err := r.store.Save(ctx, equipmentTypeID, []baseline.Entry{e}); err != nil {
			perr := errors.NewPersistenceError("save", equipmentTypeID, err)
			perr.Parameters = []string{e.ParameterName}
			logger.Warn().Err(err).Str("parameter", e.ParameterName).Msg("failed to save baseline entry")
			result.Errors = append(result.Errors, perr)
			continue
		}
		result.SavedCount++
	}

	return result.finish()
}

// asPersistence wraps store errors that are not already typed.
func asPersistence(op, equipmentTypeID string, err error) error {
	if errors.IsPersistenceError(err) {
		return err
	}
	return errors.NewPersistenceError(op, equipmentTypeID, err)
}
