// Package reconcile decides how newly derived candidates replace the values
// already stored in a baseline, and runs the end-to-end quick setup that
// analyzes a comparison table, resolves conflicts and saves the outcome.
package reconcile

import (
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/constants"
)

// Resolution is the policy decision for a conflict.
type Resolution string

const (
	// ResolutionUpdate replaces the stored value with the candidate.
	ResolutionUpdate Resolution = "UPDATE"
	// ResolutionKeep keeps the stored value.
	ResolutionKeep Resolution = "KEEP"
	// ResolutionReview leaves the decision to a reviewer or AutoResolve.
	ResolutionReview Resolution = "REVIEW"
)

// Action is what happens to the stored entry.
type Action string

const (
	// ActionUpdate writes the final value.
	ActionUpdate Action = "update"
	// ActionSkip leaves the stored entry untouched.
	ActionSkip Action = "skip"
)

// Conflict is a candidate whose value differs from the stored baseline value.
type Conflict struct {
	ParameterName      string     `json:"parameter_name" yaml:"parameter_name"`
	NewValue           string     `json:"new_value" yaml:"new_value"`
	ExistingValue      string     `json:"existing_value" yaml:"existing_value"`
	NewConfidence      float64    `json:"new_confidence" yaml:"new_confidence"`
	ExistingConfidence float64    `json:"existing_confidence" yaml:"existing_confidence"`
	Resolution         Resolution `json:"resolution" yaml:"resolution"`
	Action             Action     `json:"action" yaml:"action"`
	FinalValue         string     `json:"final_value" yaml:"final_value"`
}

// decide sets resolution, action and final value together.
func (c *Conflict) decide(r Resolution) {
	c.Resolution = r
	switch r {
	case ResolutionUpdate:
		c.Action = ActionUpdate
		c.FinalValue = c.NewValue
	default:
		c.Action = ActionSkip
		c.FinalValue = c.ExistingValue
	}
}

// Policy holds the confidence factors separating UPDATE, REVIEW and KEEP.
type Policy struct {
	UpdateFactor float64 `json:"update_factor" yaml:"update_factor"`
	KeepFactor   float64 `json:"keep_factor" yaml:"keep_factor"`
}

// DefaultPolicy returns the standard 1.2 / 0.8 policy.
func DefaultPolicy() Policy {
	return Policy{
		UpdateFactor: constants.DefaultUpdateFactor,
		KeepFactor:   constants.DefaultKeepFactor,
	}
}

// Resolve classifies a conflict from the two confidences: UPDATE when the new
// confidence beats the stored one by the update factor, KEEP when it falls
// below the keep factor, REVIEW in between.
func (p Policy) Resolve(newConfidence, existingConfidence float64) Resolution {
	switch {
	case newConfidence > existingConfidence*p.UpdateFactor:
		return ResolutionUpdate
	case newConfidence < existingConfidence*p.KeepFactor:
		return ResolutionKeep
	default:
		return ResolutionReview
	}
}

// Detect returns one conflict per candidate whose stored value differs.
// Parameters with no stored entry are not conflicts.
func (p Policy) Detect(candidates []consensus.Candidate, existing map[string]baseline.Entry) []Conflict {
	var conflicts []Conflict
	for _, c := range candidates {
		stored, ok := existing[c.ParameterName]
		if !ok || stored.Value == c.CandidateValue {
			continue
		}
		conflict := Conflict{
			ParameterName:      c.ParameterName,
			NewValue:           c.CandidateValue,
			ExistingValue:      stored.Value,
			NewConfidence:      c.ConfidenceScore,
			ExistingConfidence: stored.Confidence,
		}
		conflict.decide(p.Resolve(conflict.NewConfidence, conflict.ExistingConfidence))
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}

// DetectConflicts detects conflicts with the default policy.
func DetectConflicts(candidates []consensus.Candidate, existing map[string]baseline.Entry) []Conflict {
	return DefaultPolicy().Detect(candidates, existing)
}

// AutoResolve settles REVIEW conflicts with the confidence strategy and
// returns a new slice; the input is not modified.
func AutoResolve(conflicts []Conflict) []Conflict {
	return Resolve(conflicts, NewConfidenceStrategy())
}

// Resolve applies a strategy to every REVIEW conflict.
func Resolve(conflicts []Conflict, strategy Strategy) []Conflict {
	out := make([]Conflict, len(conflicts))
	for i, c := range conflicts {
		if c.Resolution == ResolutionReview {
			c.decide(strategy.Resolve(c))
		}
		out[i] = c
	}
	return out
}
