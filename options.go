package motherdb

import (
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/cache"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/reconcile"
	"github.com/agentstation/motherdb/pkg/sources"
)

// config holds the settings a Client is built from.
type config struct {
	store          baseline.Store
	provider       sources.Provider
	cache          *cache.Cache
	thresholds     consensus.Thresholds
	compareOpts    []compare.Option
	reconcileOpts  []reconcile.Option
	qcOpts         []qc.Option
	analyzerOpts   []qc.AnalyzerOption
	requireStored  bool
}

func defaultConfig() *config {
	return &config{
		thresholds: consensus.DefaultThresholds(),
	}
}

// Option is a function that configures a Client.
type Option func(*config) error

// WithStore sets the baseline store. Without one an in-memory store is used.
func WithStore(store baseline.Store) Option {
	return func(c *config) error {
		if store == nil {
			return &errors.ValidationError{Field: "store", Message: "cannot be nil"}
		}
		c.store = store
		return nil
	}
}

// WithProvider sets the record provider used to load sources by id.
// Without one a file provider is used.
func WithProvider(provider sources.Provider) Option {
	return func(c *config) error {
		if provider == nil {
			return &errors.ValidationError{Field: "provider", Message: "cannot be nil"}
		}
		c.provider = provider
		return nil
	}
}

// WithCache sets the comparison cache.
func WithCache(ch *cache.Cache) Option {
	return func(c *config) error {
		c.cache = ch
		return nil
	}
}

// WithThresholds sets the candidate acceptance thresholds used by both
// AnalyzeCandidates and QuickSetup.
func WithThresholds(th consensus.Thresholds) Option {
	return func(c *config) error {
		if th.MinOccurrenceRate < 0 || th.MinOccurrenceRate > 1 || th.ConfidenceThreshold < 0 || th.ConfidenceThreshold > 1 {
			return &errors.ValidationError{Field: "thresholds", Value: th, Message: "must be within [0, 1]"}
		}
		c.thresholds = th
		return nil
	}
}

// WithCompareOptions passes options to the comparison engine.
func WithCompareOptions(opts ...compare.Option) Option {
	return func(c *config) error {
		c.compareOpts = append(c.compareOpts, opts...)
		return nil
	}
}

// WithReconcileOptions passes options to the conflict resolver.
func WithReconcileOptions(opts ...reconcile.Option) Option {
	return func(c *config) error {
		c.reconcileOpts = append(c.reconcileOpts, opts...)
		return nil
	}
}

// WithQCOptions passes options to the QC orchestrator.
func WithQCOptions(opts ...qc.Option) Option {
	return func(c *config) error {
		c.qcOpts = append(c.qcOpts, opts...)
		return nil
	}
}

// WithAnalyzerOptions passes options to the advanced QC analyzer.
func WithAnalyzerOptions(opts ...qc.AnalyzerOption) Option {
	return func(c *config) error {
		c.analyzerOpts = append(c.analyzerOpts, opts...)
		return nil
	}
}

// WithRequireRegistered makes QuickSetup fail for equipment types the store
// does not know.
func WithRequireRegistered(enabled bool) Option {
	return func(c *config) error {
		c.requireStored = enabled
		return nil
	}
}
