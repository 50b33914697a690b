// Package compare merges the parameter dumps of several sources into one
// comparison table and flags, per parameter, whether the sources disagree.
//
// Small inputs are merged in memory in a single pass. Inputs above the chunk
// threshold are merged a few sources at a time; the per-parameter aggregation
// is then run again over the fully merged rows so parameters spread across
// chunks are still evaluated once.
//
// Example usage:
//
//	engine := compare.New(compare.WithCache(cache.New(10)))
//	table := engine.Compare(ctx, datasets, true)
//	summary := compare.DifferenceSummary(table)
package compare

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/motherdb/pkg/cache"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
	"github.com/agentstation/motherdb/pkg/sources"
)

// Strategy names the merge path taken by a comparison.
type Strategy string

const (
	// StrategyInMemory merges all sources in one pass.
	StrategyInMemory Strategy = "in_memory"
	// StrategyChunked merges sources in bounded chunks, then re-aggregates.
	StrategyChunked Strategy = "chunked"
)

// Engine compares datasets. It is safe for concurrent use when its cache is.
type Engine struct {
	cache          *cache.Cache
	chunkThreshold int64
	chunkSize      int
	workers        int
	logger         *zerolog.Logger
}

// New creates a comparison engine.
func New(opts ...Option) *Engine {
	o := defaultOptions().apply(opts...)
	return &Engine{
		cache:          o.cache,
		chunkThreshold: o.chunkThreshold,
		chunkSize:      o.chunkSize,
		workers:        o.workers,
		logger:         o.logger,
	}
}

// Cache returns the engine cache, nil when none was configured.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return logging.FromContext(ctx)
}

// StrategyFor returns the merge strategy Compare would pick for datasets.
func (e *Engine) StrategyFor(datasets []records.Dataset) Strategy {
	var total int64
	for _, ds := range datasets {
		total += ds.EstimatedSize()
	}
	if total > e.chunkThreshold {
		return StrategyChunked
	}
	return StrategyInMemory
}

// Compare merges datasets into a comparison table. Datasets that do not expose
// the required columns and records without a parameter name are skipped and
// reported in Table.Errors. When useCache is set and the engine has a cache,
// results are cached by the set of source IDs.
func (e *Engine) Compare(ctx context.Context, datasets []records.Dataset, useCache bool) *Table {
	logger := e.log(ctx)

	var key string
	useCache = useCache && e.cache != nil
	if useCache {
		ids := make([]string, len(datasets))
		for i, ds := range datasets {
			ids[i] = ds.SourceID
		}
		key = cache.Key(ids...)
		if cached, ok := e.cache.Get(key); ok {
			if table, ok := cached.(*Table); ok {
				logger.Debug().Str("key", key[:12]).Msg("comparison cache hit")
				return table.Clone()
			}
		}
	}

	valid, errs := prepare(logger, datasets)
	table := &Table{Errors: errs}
	for _, ds := range valid {
		if !slices.Contains(table.Sources, ds.SourceID) {
			table.Sources = append(table.Sources, ds.SourceID)
		}
	}

	switch strategy := e.StrategyFor(valid); strategy {
	case StrategyChunked:
		table.Rows = e.mergeChunked(logger, valid)
	default:
		table.Rows = mergeInMemory(valid)
	}

	logger.Debug().
		Int("sources", len(table.Sources)).
		Int("rows", len(table.Rows)).
		Int("errors", len(table.Errors)).
		Msg("comparison complete")

	if useCache {
		e.cache.Set(key, table.Clone())
	}
	return table
}

// prepare checks every dataset schema and normalizes records.
func prepare(logger *zerolog.Logger, datasets []records.Dataset) ([]records.Dataset, []error) {
	var errs []error
	valid := make([]records.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		if err := ds.CheckSchema(); err != nil {
			logger.Warn().Err(err).Str("source", ds.SourceID).Msg("skipping source")
			errs = append(errs, err)
			continue
		}
		normalized, recErrs := ds.Normalize()
		errs = append(errs, recErrs...)
		valid = append(valid, normalized)
	}
	return valid, errs
}

func mergeInMemory(datasets []records.Dataset) []Row {
	var recs []records.ParameterRecord
	for _, ds := range datasets {
		recs = append(recs, ds.Records...)
	}
	return aggregate(rowsFrom(recs), true)
}

// mergeChunked builds one partial table per chunk of sources, concatenates
// them and aggregates the merged rows again.
func (e *Engine) mergeChunked(logger *zerolog.Logger, datasets []records.Dataset) []Row {
	var merged []Row
	chunks := 0
	for chunk := range slices.Chunk(datasets, e.chunkSize) {
		var recs []records.ParameterRecord
		for _, ds := range chunk {
			recs = append(recs, ds.Records...)
		}
		merged = append(merged, aggregate(rowsFrom(recs), false)...)
		chunks++
	}
	logger.Debug().
		Int("chunks", chunks).
		Int("chunk_size", e.chunkSize).
		Msg("merged sources in chunks")
	return aggregate(merged, true)
}

// Load fetches datasets from provider using a bounded worker pool. Successful
// datasets keep the order of ids; failures are returned as LoadErrors.
func (e *Engine) Load(ctx context.Context, provider sources.Provider, ids []string) ([]records.Dataset, []error) {
	logger := e.log(ctx)

	results := make([]records.Dataset, len(ids))
	failures := make([]error, len(ids))

	p := pool.New().WithMaxGoroutines(e.workers)
	for i, id := range ids {
		p.Go(func() {
			ds, err := provider.Load(ctx, id)
			if err != nil {
				if !errors.IsLoadError(err) {
					err = errors.WrapLoad(id, err)
				}
				failures[i] = err
				return
			}
			if ds.SourceID == "" {
				ds.SourceID = id
			}
			results[i] = ds
		})
	}
	p.Wait()

	var datasets []records.Dataset
	var errs []error
	for i := range ids {
		if failures[i] != nil {
			logger.Warn().Err(failures[i]).Str("source", ids[i]).Msg("failed to load source")
			errs = append(errs, failures[i])
			continue
		}
		datasets = append(datasets, results[i])
	}
	return datasets, errs
}

// Summary counts parameters by whether their sources agree.
type Summary struct {
	Total          int     `json:"total" yaml:"total"`
	Different      int     `json:"different" yaml:"different"`
	Identical      int     `json:"identical" yaml:"identical"`
	DifferenceRate float64 `json:"difference_rate" yaml:"difference_rate"`
}

// DifferenceSummary counts distinct parameters of the table and how many of
// them diverge. The rate is 0 for an empty table.
func DifferenceSummary(table *Table) Summary {
	var s Summary
	if table == nil {
		return s
	}
	seen := make(map[string]bool)
	for _, r := range table.Rows {
		if seen[r.ParameterName] {
			continue
		}
		seen[r.ParameterName] = true
		s.Total++
		if r.IsDifferent {
			s.Different++
		}
	}
	s.Identical = s.Total - s.Different
	if s.Total > 0 {
		s.DifferenceRate = float64(s.Different) / float64(s.Total)
	}
	return s
}
