package differ

import (
	"math"
	"sort"
	"strconv"

	"github.com/agentstation/motherdb/pkg/baseline"
)

// Differ handles change detection between baselines.
type Differ interface {
	// Entries compares two sets of baseline entries and returns changes
	Entries(existing, updated []baseline.Entry) *Changeset

	// Baselines compares two baselines keyed by parameter name
	Baselines(existing, updated map[string]baseline.Entry) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields        map[string]bool
	confidenceTolerance float64
	removals            bool
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields:        make(map[string]bool),
		confidenceTolerance: 1e-9,
		removals:            true,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Baselines compares two baselines keyed by parameter name.
func (diff *differ) Baselines(existing, updated map[string]baseline.Entry) *Changeset {
	return diff.Entries(baseline.Sorted(existing), baseline.Sorted(updated))
}

// Entries compares two sets of entries and returns changes.
func (diff *differ) Entries(existing, updated []baseline.Entry) *Changeset {
	changeset := &Changeset{
		Added:   []baseline.Entry{},
		Updated: []EntryUpdate{},
		Removed: []baseline.Entry{},
	}

	// Create maps for efficient lookup
	existingMap := baseline.Index(existing)
	newMap := baseline.Index(updated)

	// Find added and updated entries
	for _, newEntry := range updated {
		if existingEntry, exists := existingMap[newEntry.ParameterName]; exists {
			if update := diff.entry(existingEntry, newEntry); update != nil {
				changeset.Updated = append(changeset.Updated, *update)
			}
		} else {
			changeset.Added = append(changeset.Added, newEntry)
		}
	}

	// Find removed entries
	if diff.removals {
		for _, existingEntry := range existing {
			if _, exists := newMap[existingEntry.ParameterName]; !exists {
				changeset.Removed = append(changeset.Removed, existingEntry)
			}
		}
	}

	// Sort for consistent output
	sort.Slice(changeset.Added, func(i, j int) bool {
		return changeset.Added[i].ParameterName < changeset.Added[j].ParameterName
	})
	sort.Slice(changeset.Updated, func(i, j int) bool {
		return changeset.Updated[i].ParameterName < changeset.Updated[j].ParameterName
	})
	sort.Slice(changeset.Removed, func(i, j int) bool {
		return changeset.Removed[i].ParameterName < changeset.Removed[j].ParameterName
	})

	changeset.Summary = calculateSummary(changeset)
	return changeset
}

// entry compares two entries of the same parameter.
func (diff *differ) entry(existing, updated baseline.Entry) *EntryUpdate {
	var changes []FieldChange

	if !diff.ignoreFields["value"] && existing.Value != updated.Value {
		changes = append(changes, FieldChange{
			Path: "value", OldValue: existing.Value, NewValue: updated.Value, Type: ChangeTypeUpdate,
		})
	}

	if !diff.ignoreFields["confidence"] && math.Abs(existing.Confidence-updated.Confidence) > diff.confidenceTolerance {
		changes = append(changes, FieldChange{
			Path:     "confidence",
			OldValue: formatFloat(existing.Confidence),
			NewValue: formatFloat(updated.Confidence),
			Type:     ChangeTypeUpdate,
		})
	}

	changes = diff.bound(changes, "min_spec", existing.MinSpec, updated.MinSpec)
	changes = diff.bound(changes, "max_spec", existing.MaxSpec, updated.MaxSpec)

	if len(changes) == 0 {
		return nil
	}
	return &EntryUpdate{
		ParameterName: updated.ParameterName,
		Existing:      existing,
		New:           updated,
		Changes:       changes,
	}
}

func (diff *differ) bound(changes []FieldChange, path string, oldValue, newValue *float64) []FieldChange {
	if diff.ignoreFields[path] {
		return changes
	}
	switch {
	case oldValue == nil && newValue == nil:
		return changes
	case oldValue == nil:
		return append(changes, FieldChange{Path: path, NewValue: formatFloat(*newValue), Type: ChangeTypeAdd})
	case newValue == nil:
		return append(changes, FieldChange{Path: path, OldValue: formatFloat(*oldValue), Type: ChangeTypeRemove})
	case *oldValue != *newValue:
		return append(changes, FieldChange{
			Path: path, OldValue: formatFloat(*oldValue), NewValue: formatFloat(*newValue), Type: ChangeTypeUpdate,
		})
	}
	return changes
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
