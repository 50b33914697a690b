// Package motherdb provides the main entry point for building and checking
// equipment parameter baselines from many source units.
//
// A Client wires the pipeline together:
//   - sources are loaded in parallel and compared parameter by parameter
//   - consensus candidates are derived from the comparison table
//   - candidates are reconciled with the stored baseline and saved
//   - parameter sets are quality checked and the result exported as a report
//
// Example usage:
//
//	client, err := motherdb.New(
//	    motherdb.WithStore(baseline.NewFileStore("./baselines")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	table := client.CompareSources(ctx, []string{"unit-a.csv", "unit-b.csv", "unit-c.csv"}, false)
//	summary := client.DifferenceSummary(table)
//	fmt.Printf("%d of %d parameters differ\n", summary.Different, summary.Total)
//
//	result := client.QuickSetup(ctx, table, "ETCH-300")
//	for _, err := range result.Errors {
//	    log.Println(err)
//	}
package motherdb

import (
	"context"
	"fmt"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/cache"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/reconcile"
	"github.com/agentstation/motherdb/pkg/records"
	"github.com/agentstation/motherdb/pkg/report"
	"github.com/agentstation/motherdb/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client runs comparison, baseline setup and QC.
type Client interface {
	// Load reads sources by id through the configured provider.
	Load(ctx context.Context, ids []string) ([]records.Dataset, []error)

	// Compare merges datasets into a comparison table. With useCache the
	// table is looked up and stored by source IDs, so only pass it when the
	// datasets behind those IDs are known to be unchanged.
	Compare(ctx context.Context, datasets []records.Dataset, useCache bool) *compare.Table

	// CompareSources loads sources by id and compares them. Load failures are
	// appended to the table's errors.
	CompareSources(ctx context.Context, ids []string, useCache bool) *compare.Table

	// DifferenceSummary counts differing parameters in a table.
	DifferenceSummary(table *compare.Table) compare.Summary

	// AnalyzeCandidates derives consensus candidates from a table.
	AnalyzeCandidates(table *compare.Table) consensus.Analysis

	// QuickSetup reconciles candidates with the stored baseline and saves them.
	QuickSetup(ctx context.Context, table *compare.Table, equipmentTypeID string) *reconcile.SetupResult

	// PreviewSetup runs QuickSetup without saving.
	PreviewSetup(ctx context.Context, table *compare.Table, equipmentTypeID string) *reconcile.SetupResult

	// Baseline returns the stored baseline of an equipment type.
	Baseline(ctx context.Context, equipmentTypeID string) (map[string]baseline.Entry, error)

	// PerformQC validates records against the given reference records.
	PerformQC(ctx context.Context, recs []records.ParameterRecord, mode qc.Mode, reference []records.ParameterRecord) *qc.Result

	// PerformQCAgainst validates records against the stored baseline of an
	// equipment type, which supplies both spec bounds and the reference set.
	PerformQCAgainst(ctx context.Context, recs []records.ParameterRecord, mode qc.Mode, equipmentTypeID string) (*qc.Result, error)

	// ExportReport renders a QC result.
	ExportReport(result *qc.Result, format report.Format) (string, error)

	// Hooks
	OnEntryAdded(EntryAddedHook)
	OnEntryUpdated(EntryUpdatedHook)
	OnQCComplete(QCCompleteHook)
}

// client is the Client implementation.
type client struct {
	*hooks

	config   *config
	engine   *compare.Engine
	resolver *reconcile.Resolver
	preview  *reconcile.Resolver
	analyzer *qc.Analyzer
}

// New creates a Client with the given options.
func New(opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if cfg.store == nil {
		cfg.store = baseline.NewMemoryStore()
	}
	if cfg.provider == nil {
		cfg.provider = sources.NewFileProvider()
	}

	if cfg.cache == nil {
		cfg.cache = cache.New(constants.DefaultCacheCapacity)
	}
	compareOpts := append([]compare.Option{compare.WithCache(cfg.cache)}, cfg.compareOpts...)

	resolverOpts := append([]reconcile.Option{
		reconcile.WithThresholds(cfg.thresholds),
		reconcile.WithRequireRegistered(cfg.requireStored),
	}, cfg.reconcileOpts...)
	resolver, err := reconcile.New(cfg.store, resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}
	preview, err := reconcile.New(cfg.store, append(resolverOpts, reconcile.WithDryRun(true))...)
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	return &client{
		hooks:    newHooks(),
		config:   cfg,
		engine:   compare.New(compareOpts...),
		resolver: resolver,
		preview:  preview,
		analyzer: qc.NewAnalyzer(cfg.analyzerOpts...),
	}, nil
}

func (c *client) Load(ctx context.Context, ids []string) ([]records.Dataset, []error) {
	return c.engine.Load(ctx, c.config.provider, ids)
}

func (c *client) Compare(ctx context.Context, datasets []records.Dataset, useCache bool) *compare.Table {
	return c.engine.Compare(ctx, datasets, useCache)
}

func (c *client) CompareSources(ctx context.Context, ids []string, useCache bool) *compare.Table {
	datasets, errs := c.Load(ctx, ids)
	table := c.Compare(ctx, datasets, useCache)
	if len(errs) > 0 {
		logging.FromContext(ctx).Warn().
			Int("failed", len(errs)).
			Int("requested", len(ids)).
			Msg("some sources could not be loaded")
		table.Errors = append(errs, table.Errors...)
	}
	return table
}

func (c *client) DifferenceSummary(table *compare.Table) compare.Summary {
	return compare.DifferenceSummary(table)
}

func (c *client) AnalyzeCandidates(table *compare.Table) consensus.Analysis {
	return consensus.Analyze(table, c.config.thresholds)
}

func (c *client) QuickSetup(ctx context.Context, table *compare.Table, equipmentTypeID string) *reconcile.SetupResult {
	result := c.resolver.QuickSetup(ctx, table, equipmentTypeID)
	c.triggerSetup(result)
	return result
}

func (c *client) PreviewSetup(ctx context.Context, table *compare.Table, equipmentTypeID string) *reconcile.SetupResult {
	return c.preview.QuickSetup(ctx, table, equipmentTypeID)
}

func (c *client) Baseline(ctx context.Context, equipmentTypeID string) (map[string]baseline.Entry, error) {
	return c.config.store.GetExisting(ctx, equipmentTypeID)
}

func (c *client) PerformQC(ctx context.Context, recs []records.ParameterRecord, mode qc.Mode, reference []records.ParameterRecord) *qc.Result {
	result := c.orchestrator(nil).Perform(ctx, recs, mode, reference)
	c.triggerQC(result)
	return result
}

func (c *client) PerformQCAgainst(ctx context.Context, recs []records.ParameterRecord, mode qc.Mode, equipmentTypeID string) (*qc.Result, error) {
	existing, err := c.Baseline(ctx, equipmentTypeID)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithEquipmentType(ctx, equipmentTypeID)
	result := c.orchestrator(existing).Perform(ctx, recs, mode, referenceOf(existing))
	c.triggerQC(result)
	return result, nil
}

func (c *client) ExportReport(result *qc.Result, format report.Format) (string, error) {
	return report.Export(result, format)
}

// orchestrator builds a QC orchestrator, optionally bound to a baseline.
func (c *client) orchestrator(base map[string]baseline.Entry) *qc.Orchestrator {
	opts := append([]qc.Option{qc.WithAnalyzer(c.analyzer)}, c.config.qcOpts...)
	if base != nil {
		opts = append(opts, qc.WithBaseline(base))
	}
	return qc.New(opts...)
}

// referenceOf turns baseline entries into reference records, in name order.
func referenceOf(base map[string]baseline.Entry) []records.ParameterRecord {
	entries := baseline.Sorted(base)
	out := make([]records.ParameterRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, records.ParameterRecord{
			ParameterName: e.ParameterName,
			Value:         e.Value,
			MinSpec:       e.MinSpec,
			MaxSpec:       e.MaxSpec,
		})
	}
	return out
}
