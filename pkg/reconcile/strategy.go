package reconcile

// Strategy defines how REVIEW conflicts are settled
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Description returns a human-readable description
	Description() string

	// Resolve returns UPDATE or KEEP for a REVIEW conflict
	Resolve(conflict Conflict) Resolution
}

// baseStrategy provides common strategy functionality
type baseStrategy struct {
	name        string
	description string
}

// Name returns the strategy name
func (s *baseStrategy) Name() string {
	return s.name
}

// Description returns a human-readable description
func (s *baseStrategy) Description() string {
	return s.description
}

// ConfidenceStrategy updates when the new confidence is at least the stored one
type ConfidenceStrategy struct {
	baseStrategy
}

// NewConfidenceStrategy creates the default auto-resolution strategy
func NewConfidenceStrategy() Strategy {
	return &ConfidenceStrategy{
		baseStrategy: baseStrategy{
			name:        "confidence",
			description: "Updates when the new confidence is at least the stored confidence",
		},
	}
}

// Resolve implements Strategy
func (s *ConfidenceStrategy) Resolve(c Conflict) Resolution {
	if c.NewConfidence >= c.ExistingConfidence {
		return ResolutionUpdate
	}
	return ResolutionKeep
}

// PreferExistingStrategy always keeps the stored value
type PreferExistingStrategy struct {
	baseStrategy
}

// NewPreferExistingStrategy creates a strategy that never overwrites on review
func NewPreferExistingStrategy() Strategy {
	return &PreferExistingStrategy{
		baseStrategy: baseStrategy{
			name:        "prefer-existing",
			description: "Keeps the stored value for every conflict under review",
		},
	}
}

// Resolve implements Strategy
func (s *PreferExistingStrategy) Resolve(Conflict) Resolution {
	return ResolutionKeep
}

// PreferNewStrategy always takes the candidate value
type PreferNewStrategy struct {
	baseStrategy
}

// NewPreferNewStrategy creates a strategy that always overwrites on review
func NewPreferNewStrategy() Strategy {
	return &PreferNewStrategy{
		baseStrategy: baseStrategy{
			name:        "prefer-new",
			description: "Takes the candidate value for every conflict under review",
		},
	}
}

// Resolve implements Strategy
func (s *PreferNewStrategy) Resolve(Conflict) Resolution {
	return ResolutionUpdate
}

// StrategyByName returns a built-in strategy, or nil for an unknown name.
func StrategyByName(name string) Strategy {
	switch name {
	case "", "confidence":
		return NewConfidenceStrategy()
	case "prefer-existing":
		return NewPreferExistingStrategy()
	case "prefer-new":
		return NewPreferNewStrategy()
	}
	return nil
}
