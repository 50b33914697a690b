package qc

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
)

// Orchestrator selects the validation depth and aggregates results.
type Orchestrator struct {
	analyzer               *Analyzer
	autoAdvancedThreshold  int
	countCriticalAsFailure bool
	baseline               map[string]baseline.Entry
	logger                 *zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAnalyzer sets the advanced analyzer.
func WithAnalyzer(a *Analyzer) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.analyzer = a
		}
	}
}

// WithAutoAdvancedThreshold sets the record count above which AUTO runs
// advanced validation.
func WithAutoAdvancedThreshold(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.autoAdvancedThreshold = n
		}
	}
}

// WithCountCriticalAsFailure controls whether CRITICAL issues count as
// failures alongside HIGH ones.
func WithCountCriticalAsFailure(enabled bool) Option {
	return func(o *Orchestrator) {
		o.countCriticalAsFailure = enabled
	}
}

// WithBaseline sets the stored baseline whose spec bounds the range check uses.
func WithBaseline(entries map[string]baseline.Entry) Option {
	return func(o *Orchestrator) {
		o.baseline = entries
	}
}

// WithLogger overrides the logger taken from the call context.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyzer:               NewAnalyzer(),
		autoAdvancedThreshold:  constants.DefaultAutoAdvancedThreshold,
		countCriticalAsFailure: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResolveMode turns AUTO into BASIC or ADVANCED for a record count.
func (o *Orchestrator) ResolveMode(mode Mode, recordCount int) Mode {
	if mode != ModeAuto {
		return mode
	}
	if recordCount > o.autoAdvancedThreshold {
		return ModeAdvanced
	}
	return ModeBasic
}

// Perform validates records. Basic validation always runs; advanced analysis
// runs in ADVANCED mode. When no baseline was configured, spec bounds of the
// reference records stand in for it.
func (o *Orchestrator) Perform(ctx context.Context, recs []records.ParameterRecord, mode Mode, reference []records.ParameterRecord) *Result {
	logger := o.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	resolved := o.ResolveMode(mode, len(recs))
	result := &Result{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Mode:      resolved,
	}

	base := o.baseline
	if base == nil && len(reference) > 0 {
		base = boundsOf(reference)
	}

	issues := ValidateBasic(recs, base)
	if resolved == ModeAdvanced {
		issues = append(issues, o.analyzer.Analyze(recs, reference)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() < issues[j].Severity.Rank()
	})
	result.Issues = issues

	o.aggregate(result, recs)

	logger.Debug().
		Str("qc_id", result.ID).
		Str("mode", string(resolved)).
		Int("parameters", result.TotalParameters).
		Int("issues", len(issues)).
		Int("failed", result.FailedCount).
		Msg("qc complete")
	return result
}

// aggregate fills the counts. Failures are HIGH issues, plus CRITICAL ones
// when configured; warnings are MEDIUM and LOW issues.
func (o *Orchestrator) aggregate(result *Result, recs []records.ParameterRecord) {
	result.TotalParameters = len(records.ParameterNames(recs))
	result.SeverityBreakdown = make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		result.SeverityBreakdown[s] = 0
	}

	for _, issue := range result.Issues {
		result.SeverityBreakdown[issue.Severity]++
		switch issue.Severity {
		case SeverityHigh:
			result.FailedCount++
		case SeverityCritical:
			if o.countCriticalAsFailure {
				result.FailedCount++
			}
		case SeverityMedium, SeverityLow:
			result.WarningCount++
		}
	}
	result.PassedCount = max(0, result.TotalParameters-result.FailedCount)
}

// boundsOf builds baseline entries from the spec bounds of records.
func boundsOf(recs []records.ParameterRecord) map[string]baseline.Entry {
	out := make(map[string]baseline.Entry)
	for _, rec := range recs {
		if !rec.HasBounds() {
			continue
		}
		if _, ok := out[rec.ParameterName]; ok {
			continue
		}
		out[rec.ParameterName] = baseline.Entry{
			ParameterName: rec.ParameterName,
			Value:         rec.Value,
			MinSpec:       rec.MinSpec,
			MaxSpec:       rec.MaxSpec,
		}
	}
	return out
}
