package handlers

import (
	"net/http"

	"github.com/agentstation/motherdb/internal/server/response"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/errors"
)

// CompareResponse is the body of a successful comparison.
type CompareResponse struct {
	Sources []string        `json:"sources"`
	Summary compare.Summary `json:"summary"`
	Rows    []compare.Row   `json:"rows"`
	Errors  []string        `json:"errors,omitempty"`
}

// CandidatesResponse is a consensus analysis plus the sources that were
// skipped while building it.
type CandidatesResponse struct {
	consensus.Analysis
	Errors []string `json:"errors,omitempty"`
}

// HandleCompare handles POST /api/v1/compare.
// Query: different_only=true keeps only parameters whose values differ;
// use_cache=true allows a cached table for the same source IDs.
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	differentOnly, err := queryBool(r, "different_only")
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var req SourceRequest
	if err := h.decode(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	cached, err := useCache(r, req)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := r.Context()
	datasets, loadErrs, err := h.datasets(ctx, req)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	tbl := h.client.Compare(ctx, datasets, cached)
	rows := tbl.Rows
	if differentOnly {
		rows = rows[:0:0]
		for _, row := range tbl.Rows {
			if row.IsDifferent {
				rows = append(rows, row)
			}
		}
	}

	response.OK(w, CompareResponse{
		Sources: tbl.Sources,
		Summary: h.client.DifferenceSummary(tbl),
		Rows:    rows,
		Errors:  errors.Messages(append(loadErrs, tbl.Errors...)),
	})
}

// HandleCandidates handles POST /api/v1/candidates.
// Query: use_cache=true allows a cached table for the same source IDs.
func (h *Handlers) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if err := h.decode(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	cached, err := useCache(r, req)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := r.Context()
	datasets, loadErrs, err := h.datasets(ctx, req)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	tbl := h.client.Compare(ctx, datasets, cached)
	response.OK(w, CandidatesResponse{
		Analysis: h.client.AnalyzeCandidates(tbl),
		Errors:   errors.Messages(append(loadErrs, tbl.Errors...)),
	})
}
