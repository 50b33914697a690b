package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
)

// SourceRequest selects the parameter dumps an endpoint works on: source
// identifiers resolved by the server's provider, datasets sent inline, or
// both.
type SourceRequest struct {
	Sources  []string          `json:"sources,omitempty"`
	Datasets []records.Dataset `json:"datasets,omitempty"`
}

// useCache reports whether a comparison may be served from the cache. It
// is opt-in through use_cache=true and never applies to inline datasets,
// whose content is not part of the cache key.
func useCache(r *http.Request, req SourceRequest) (bool, error) {
	enabled, err := queryBool(r, "use_cache")
	if err != nil {
		return false, err
	}
	return enabled && len(req.Datasets) == 0, nil
}

// datasets resolves req. Sources that fail to load are returned as errors
// alongside the rest; only a request with nothing usable fails outright.
func (h *Handlers) datasets(ctx context.Context, req SourceRequest) ([]records.Dataset, []error, error) {
	if len(req.Sources) == 0 && len(req.Datasets) == 0 {
		return nil, nil, errors.NewValidationError("sources", nil, "at least one source or dataset is required")
	}

	var (
		out  []records.Dataset
		errs []error
	)
	if len(req.Sources) > 0 {
		out, errs = h.client.Load(ctx, req.Sources)
	}
	for i, ds := range req.Datasets {
		if ds.SourceID == "" {
			return nil, nil, errors.NewValidationError("datasets.source_id", i, "is required")
		}
		out = append(out, ds)
	}

	for _, err := range errs {
		logging.FromContext(ctx).Warn().Err(err).Msg("Skipped source")
	}
	if len(out) == 0 {
		return nil, errs, errors.NewLoadError("request", "no source could be loaded", errors.Join(errs...))
	}
	return out, errs, nil
}
