package reconcile

import (
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/errors"
)

// options configures a Resolver.
type options struct {
	policy            Policy
	thresholds        consensus.Thresholds
	strategy          Strategy
	dryRun            bool
	requireRegistered bool
}

func defaultOptions() *options {
	return &options{
		policy:     DefaultPolicy(),
		thresholds: consensus.DefaultThresholds(),
		strategy:   NewConfidenceStrategy(),
	}
}

// Option is a function that configures a Resolver.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithPolicy sets the conflict policy factors.
func WithPolicy(p Policy) Option {
	return func(o *options) error {
		if p.UpdateFactor <= 0 || p.KeepFactor <= 0 || p.KeepFactor > p.UpdateFactor {
			return &errors.ValidationError{
				Field:   "policy",
				Value:   p,
				Message: "factors must be positive with keep_factor <= update_factor",
			}
		}
		o.policy = p
		return nil
	}
}

// WithThresholds sets the candidate acceptance thresholds.
func WithThresholds(th consensus.Thresholds) Option {
	return func(o *options) error {
		if th.MinOccurrenceRate < 0 || th.MinOccurrenceRate > 1 || th.ConfidenceThreshold < 0 || th.ConfidenceThreshold > 1 {
			return &errors.ValidationError{
				Field:   "thresholds",
				Value:   th,
				Message: "must be within [0, 1]",
			}
		}
		o.thresholds = th
		return nil
	}
}

// WithStrategy sets how REVIEW conflicts are settled.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		o.strategy = strategy
		return nil
	}
}

// WithDryRun computes the setup without saving anything.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithRequireRegistered fails setup for equipment types unknown to the store.
func WithRequireRegistered(enabled bool) Option {
	return func(o *options) error {
		o.requireRegistered = enabled
		return nil
	}
}
