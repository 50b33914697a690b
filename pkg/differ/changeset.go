// Package differ provides functionality for comparing baselines and detecting changes.
package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/motherdb/pkg/baseline"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates an entry was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates an entry was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates an entry was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`           // Field path (e.g., "value", "max_spec")
	OldValue string     `json:"old_value" yaml:"old_value"` // Previous value (string representation)
	NewValue string     `json:"new_value" yaml:"new_value"` // New value (string representation)
	Type     ChangeType `json:"type" yaml:"type"`
}

// EntryUpdate represents an update to an existing baseline entry.
type EntryUpdate struct {
	ParameterName string         `json:"parameter_name" yaml:"parameter_name"`
	Existing      baseline.Entry `json:"existing" yaml:"existing"`
	New           baseline.Entry `json:"new" yaml:"new"`
	Changes       []FieldChange  `json:"changes" yaml:"changes"`
}

// Changeset represents all changes between two baselines.
type Changeset struct {
	Added   []baseline.Entry `json:"added" yaml:"added"`
	Updated []EntryUpdate    `json:"updated" yaml:"updated"`
	Removed []baseline.Entry `json:"removed" yaml:"removed"`
	Summary Summary          `json:"summary" yaml:"summary"`
}

// Summary provides summary statistics for a changeset.
type Summary struct {
	Added        int `json:"added" yaml:"added"`
	Updated      int `json:"updated" yaml:"updated"`
	Removed      int `json:"removed" yaml:"removed"`
	TotalChanges int `json:"total_changes" yaml:"total_changes"`
}

func calculateSummary(c *Changeset) Summary {
	return Summary{
		Added:        len(c.Added),
		Updated:      len(c.Updated),
		Removed:      len(c.Removed),
		TotalChanges: len(c.Added) + len(c.Updated) + len(c.Removed),
	}
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c != nil && c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return !c.HasChanges()
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, fmt.Sprintf("%d added", len(c.Added)))
	}
	if len(c.Updated) > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", len(c.Updated)))
	}
	if len(c.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", len(c.Removed)))
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

	if len(c.Added) > 0 {
		_, _ = fmt.Fprintf(w, "\n➕ Added Parameters (%d):\n", len(c.Added))
		for _, e := range c.Added {
			_, _ = fmt.Fprintf(w, "  • %s = %s (confidence %.2f)\n", e.ParameterName, e.Value, e.Confidence)
		}
	}

	if len(c.Updated) > 0 {
		_, _ = fmt.Fprintf(w, "\n🔄 Updated Parameters (%d):\n", len(c.Updated))
		for _, u := range c.Updated {
			_, _ = fmt.Fprintf(w, "  • %s:\n", u.ParameterName)
			for _, change := range u.Changes {
				_, _ = fmt.Fprintf(w, "    - %s: %s → %s\n", change.Path, change.OldValue, change.NewValue)
			}
		}
	}

	if len(c.Removed) > 0 {
		_, _ = fmt.Fprintf(w, "\n⚠️  Not In Candidates (%d):\n", len(c.Removed))
		for _, e := range c.Removed {
			_, _ = fmt.Fprintf(w, "  • %s = %s\n", e.ParameterName, e.Value)
		}
	}
}
