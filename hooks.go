package motherdb

import (
	"sync"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/reconcile"
)

// Hook function types for baseline and QC events
type (
	// EntryAddedHook is called when a parameter is added to a baseline
	EntryAddedHook func(equipmentTypeID string, entry baseline.Entry)

	// EntryUpdatedHook is called when a stored baseline parameter is replaced
	EntryUpdatedHook func(equipmentTypeID string, old, new baseline.Entry)

	// QCCompleteHook is called after every QC run
	QCCompleteHook func(result *qc.Result)
)

// hooks manages event callbacks
type hooks struct {
	mu             sync.RWMutex
	onEntryAdded   []EntryAddedHook
	onEntryUpdated []EntryUpdatedHook
	onQCComplete   []QCCompleteHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnEntryAdded registers a callback for when baseline entries are added
func (h *hooks) OnEntryAdded(fn EntryAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryAdded = append(h.onEntryAdded, fn)
}

// OnEntryUpdated registers a callback for when baseline entries are updated
func (h *hooks) OnEntryUpdated(fn EntryUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryUpdated = append(h.onEntryUpdated, fn)
}

// OnQCComplete registers a callback for finished QC runs
func (h *hooks) OnQCComplete(fn QCCompleteHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onQCComplete = append(h.onQCComplete, fn)
}

// triggerSetup fires entry hooks for the changes a setup actually saved.
func (h *hooks) triggerSetup(result *reconcile.SetupResult) {
	if result == nil || result.Changeset == nil || result.Metadata.DryRun {
		return
	}

	failed := make(map[string]bool)
	for _, err := range result.Errors {
		var perr *errors.PersistenceError
		if errors.As(err, &perr) {
			for _, p := range perr.Parameters {
				failed[p] = true
			}
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range result.Changeset.Added {
		if failed[e.ParameterName] {
			continue
		}
		for _, hook := range h.onEntryAdded {
			hook(result.EquipmentTypeID, e)
		}
	}
	for _, u := range result.Changeset.Updated {
		if failed[u.ParameterName] {
			continue
		}
		for _, hook := range h.onEntryUpdated {
			hook(result.EquipmentTypeID, u.Existing, u.New)
		}
	}
}

func (h *hooks) triggerQC(result *qc.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onQCComplete {
		hook(result)
	}
}
