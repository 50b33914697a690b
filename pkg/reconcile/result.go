package reconcile

import (
	"time"

	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/differ"
	"github.com/agentstation/motherdb/pkg/errors"
)

// SetupResult represents the outcome of a quick setup.
type SetupResult struct {
	EquipmentTypeID string `json:"equipment_type_id" yaml:"equipment_type_id"`

	// Counts
	TotalCandidates int `json:"total_candidates" yaml:"total_candidates"`
	ConflictCount   int `json:"conflict_count" yaml:"conflict_count"`
	SavedCount      int `json:"saved_count" yaml:"saved_count"`

	// Core data
	Candidates []consensus.Candidate `json:"candidates" yaml:"candidates"`
	Rejected   []consensus.Candidate `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Conflicts  []Conflict            `json:"conflicts" yaml:"conflicts"`
	Changeset  *differ.Changeset     `json:"changeset,omitempty" yaml:"changeset,omitempty"`

	// Metadata
	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`

	// Issues
	Errors []error `json:"-" yaml:"-"`
}

// ResultMetadata contains metadata about the setup run.
type ResultMetadata struct {
	// StartTime when setup started
	StartTime time.Time `json:"start_time" yaml:"start_time"`

	// EndTime when setup completed
	EndTime time.Time `json:"end_time" yaml:"end_time"`

	// Duration of the setup
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Sources that contributed to the candidates
	Sources []string `json:"sources" yaml:"sources"`

	// Strategy used for REVIEW conflicts
	Strategy string `json:"strategy" yaml:"strategy"`

	// DryRun indicates nothing was saved
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// IsSuccess returns true if setup finished without errors.
func (r *SetupResult) IsSuccess() bool {
	return len(r.Errors) == 0
}

// ErrorMessages returns the errors as strings.
func (r *SetupResult) ErrorMessages() []string {
	return errors.Messages(r.Errors)
}

// ResolutionCounts counts conflicts per final resolution.
func (r *SetupResult) ResolutionCounts() map[Resolution]int {
	out := make(map[Resolution]int)
	for _, c := range r.Conflicts {
		out[c.Resolution]++
	}
	return out
}

func (r *SetupResult) finish() *SetupResult {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	return r
}
