package handlers

import (
	"net/http"

	"github.com/agentstation/motherdb/internal/server/response"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/records"
	"github.com/agentstation/motherdb/pkg/report"
)

// QCRequest is the body of POST /api/v1/qc. The records to check come from
// Source or Records; the optional reference comes from EquipmentTypeID (the
// stored baseline), ReferenceSource or Reference.
type QCRequest struct {
	Source  string                    `json:"source,omitempty"`
	Records []records.ParameterRecord `json:"records,omitempty"`
	Mode    string                    `json:"mode,omitempty"`

	EquipmentTypeID string                    `json:"equipment_type_id,omitempty"`
	ReferenceSource string                    `json:"reference_source,omitempty"`
	Reference       []records.ParameterRecord `json:"reference,omitempty"`
}

var reportContentTypes = map[report.Format]string{
	report.FormatHTML:     "text/html; charset=utf-8",
	report.FormatCSV:      "text/csv; charset=utf-8",
	report.FormatMarkdown: "text/markdown; charset=utf-8",
}

// HandleQC handles POST /api/v1/qc.
// Query: format=html|csv|markdown returns the exported report instead of
// the JSON result.
func (h *Handlers) HandleQC(w http.ResponseWriter, r *http.Request) {
	var format report.Format
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := report.ParseFormat(raw)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		format = f
	}

	var req QCRequest
	if err := h.decode(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if err := req.validate(); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	mode, err := qc.ParseMode(req.Mode)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := r.Context()
	recs, err := h.records(r, req.Source, req.Records)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var result *qc.Result
	switch {
	case req.EquipmentTypeID != "":
		result, err = h.client.PerformQCAgainst(ctx, recs, mode, req.EquipmentTypeID)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
	case req.ReferenceSource != "" || len(req.Reference) > 0:
		reference, err := h.records(r, req.ReferenceSource, req.Reference)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		result = h.client.PerformQC(ctx, recs, mode, reference)
	default:
		result = h.client.PerformQC(ctx, recs, mode, nil)
	}

	if format == "" {
		response.OK(w, result)
		return
	}
	content, err := h.client.ExportReport(result, format)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.Raw(w, reportContentTypes[format], content)
}

// validate checks that the request names exactly one input and at most one
// kind of reference.
func (req QCRequest) validate() error {
	if (req.Source == "") == (len(req.Records) == 0) {
		return errors.NewValidationError("source", req.Source, "exactly one of source or records is required")
	}
	if req.ReferenceSource != "" && len(req.Reference) > 0 {
		return errors.NewValidationError("reference", nil, "reference_source and reference are mutually exclusive")
	}
	if req.EquipmentTypeID != "" && (req.ReferenceSource != "" || len(req.Reference) > 0) {
		return errors.NewValidationError("equipment_type_id", req.EquipmentTypeID, "cannot be combined with a reference")
	}
	return nil
}

// records returns inline records, or loads them from source.
func (h *Handlers) records(r *http.Request, source string, inline []records.ParameterRecord) ([]records.ParameterRecord, error) {
	if source == "" {
		return inline, nil
	}
	datasets, errs := h.client.Load(r.Context(), []string{source})
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if len(datasets) == 0 {
		return nil, errors.NewLoadError(source, "no records", nil)
	}
	return datasets[0].Records, nil
}
