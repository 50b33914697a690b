// Package server provides the HTTP API of motherdb: comparison, consensus,
// baseline setup and QC over JSON, plus realtime baseline and QC events
// over WebSocket and SSE.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/server/cache"
	"github.com/agentstation/motherdb/internal/server/events"
	"github.com/agentstation/motherdb/internal/server/events/adapters"
	"github.com/agentstation/motherdb/internal/server/sse"
	ws "github.com/agentstation/motherdb/internal/server/websocket"
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/sources"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         motherdb.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	version        string
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	started        atomic.Bool
	startTime      time.Time
}

// New creates a server around a client derived from the app. Every request
// shares that client, so its hooks see every baseline change and QC run.
// Requests can only load sources through cfg.Provider, or files below
// cfg.SourceDir.
func New(app appcontext.Interface, cfg Config) (*Server, error) {
	logger := app.Logger()

	defaults := DefaultConfig()
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}

	provider := cfg.Provider
	if provider == nil {
		provider = sources.NewFileProviderAt(cfg.SourceDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client, err := app.ClientWithOptions(ctx, motherdb.WithProvider(provider))
	if err != nil {
		cancel()
		return nil, err
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	s := &Server{
		client:         client,
		cache:          cache.New(cfg.CacheTTL),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg),
		},
		logger:    logger,
		config:    cfg,
		version:   app.Version(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startTime: time.Now(),
	}

	s.connectHooks()
	logger.Debug().Msg("Server instance created")
	return s, nil
}

// connectHooks publishes client hook callbacks to the broker and drops
// cached baselines that changed.
func (s *Server) connectHooks() {
	s.client.OnEntryAdded(func(equipmentTypeID string, entry baseline.Entry) {
		s.cache.Invalidate(equipmentTypeID)
		s.broker.Publish(events.EntryAdded, equipmentTypeID, map[string]any{
			"entry": entry,
		})
	})

	s.client.OnEntryUpdated(func(equipmentTypeID string, old, updated baseline.Entry) {
		s.cache.Invalidate(equipmentTypeID)
		s.broker.Publish(events.EntryUpdated, equipmentTypeID, map[string]any{
			"old_entry": old,
			"new_entry": updated,
		})
	})

	s.client.OnQCComplete(func(result *qc.Result) {
		s.broker.Publish(events.QCCompleted, "", map[string]any{
			"id":               result.ID,
			"mode":             result.Mode,
			"total_parameters": result.TotalParameters,
			"passed_count":     result.PassedCount,
			"failed_count":     result.FailedCount,
			"warning_count":    result.WarningCount,
		})
	})

	s.logger.Debug().Msg("Client hooks connected to event broker")
}

// checkOrigin accepts WebSocket upgrades from the configured CORS origins,
// or from any origin when CORS is off or unrestricted.
func checkOrigin(cfg Config) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || !cfg.CORSEnabled || len(cfg.CORSOrigins) == 0 {
			return true
		}
		for _, o := range cfg.CORSOrigins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
// Calls after the first are no-ops.
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Debug().Msg("Starting background services")

	var wg conc.WaitGroup
	wg.Go(func() { s.broker.Run(s.ctx) })
	wg.Go(func() { s.wsHub.Run(s.ctx) })
	wg.Go(func() { s.sseBroadcaster.Run(s.ctx) })

	go func() {
		wg.Wait()
		close(s.done)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops the background services and waits for them until ctx
// expires. Without a prior Start it returns immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	if !s.started.Load() {
		return nil
	}
	select {
	case <-s.done:
		s.logger.Info().Msg("Background services shut down")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server creation time.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
