package handlers

import (
	"net/http"

	"github.com/agentstation/motherdb/internal/server/response"
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/reconcile"
)

// BaselineResponse is the stored baseline of one equipment type.
type BaselineResponse struct {
	EquipmentTypeID string           `json:"equipment_type_id"`
	Entries         []baseline.Entry `json:"entries"`
}

// SetupResponse is a setup result plus the sources that were skipped.
type SetupResponse struct {
	reconcile.SetupResult
	Errors []string `json:"errors,omitempty"`
}

// HandleGetBaseline handles GET /api/v1/baselines/{equipmentType}.
// Query: parameter=<name> returns a single entry.
func (h *Handlers) HandleGetBaseline(w http.ResponseWriter, r *http.Request) {
	equipmentType := r.PathValue("equipmentType")

	entries, cached := h.cache.Baseline(equipmentType)
	if !cached {
		existing, err := h.client.Baseline(r.Context(), equipmentType)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		if len(existing) == 0 {
			response.ErrorFromType(w, errors.NewNotFoundError("baseline", equipmentType))
			return
		}
		entries = baseline.Sorted(existing)
		h.cache.SetBaseline(equipmentType, entries)
	}

	if param := r.URL.Query().Get("parameter"); param != "" {
		var found []baseline.Entry
		for _, e := range entries {
			if e.ParameterName == param {
				found = append(found, e)
			}
		}
		if len(found) == 0 {
			response.ErrorFromType(w, errors.NewNotFoundError("parameter", param))
			return
		}
		entries = found
	}

	response.OK(w, BaselineResponse{EquipmentTypeID: equipmentType, Entries: entries})
}

// HandleSetup handles POST /api/v1/baselines/{equipmentType}/setup.
// Query: dry_run=true previews the setup without saving.
func (h *Handlers) HandleSetup(w http.ResponseWriter, r *http.Request) {
	equipmentType := r.PathValue("equipmentType")

	dryRun, err := queryBool(r, "dry_run")
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var req SourceRequest
	if err := h.decode(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := logging.WithEquipmentType(r.Context(), equipmentType)
	datasets, loadErrs, err := h.datasets(ctx, req)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	// Setup always compares fresh data so stale tables never reach the store.
	tbl := h.client.Compare(ctx, datasets, false)
	var result *reconcile.SetupResult
	if dryRun {
		result = h.client.PreviewSetup(ctx, tbl, equipmentType)
	} else {
		result = h.client.QuickSetup(ctx, tbl, equipmentType)
	}

	if len(result.Errors) > 0 {
		logging.FromContext(ctx).Error().
			Err(errors.Join(result.Errors...)).
			Int("saved", result.SavedCount).
			Msg("Baseline setup failed")
		response.ErrorFromType(w, errors.Join(result.Errors...))
		return
	}

	response.OK(w, SetupResponse{
		SetupResult: *result,
		Errors:      errors.Messages(append(loadErrs, tbl.Errors...)),
	})
}
