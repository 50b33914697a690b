package differ

// Option is a functional option for configuring Differ
type Option func(*differ)

// WithIgnoredFields sets fields to ignore during comparison
// ("value", "confidence", "min_spec", "max_spec").
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithConfidenceTolerance treats confidence changes up to tol as unchanged.
func WithConfidenceTolerance(tol float64) Option {
	return func(d *differ) {
		if tol >= 0 {
			d.confidenceTolerance = tol
		}
	}
}

// WithRemovals enables/disables reporting existing entries missing from the
// updated set.
func WithRemovals(enabled bool) Option {
	return func(d *differ) {
		d.removals = enabled
	}
}
