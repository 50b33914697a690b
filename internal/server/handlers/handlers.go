// Package handlers provides HTTP request handlers for the motherdb API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/server/cache"
	"github.com/agentstation/motherdb/internal/server/events"
	"github.com/agentstation/motherdb/internal/server/sse"
	ws "github.com/agentstation/motherdb/internal/server/websocket"
	"github.com/agentstation/motherdb/pkg/errors"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         motherdb.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	version        string
	maxBodyBytes   int64
}

// New creates a new Handlers instance.
func New(
	client motherdb.Client,
	cache *cache.Cache,
	broker *events.Broker,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	version string,
	maxBodyBytes int64,
) *Handlers {
	return &Handlers{
		client:         client,
		cache:          cache,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		version:        version,
		maxBodyBytes:   maxBodyBytes,
	}
}

// decode reads a JSON body into v, rejecting unknown fields and bodies
// over the configured limit.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errors.NewValidationError("body", nil, err.Error())
	}
	return nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.NewValidationError(name, raw, "must be true or false")
	}
	return v, nil
}
