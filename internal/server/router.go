package server

import (
	"net/http"

	"github.com/agentstation/motherdb/internal/server/handlers"
	"github.com/agentstation/motherdb/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.client,
		s.cache,
		s.broker,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.version,
		s.config.MaxBodyBytes,
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Health
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	if prefix != "" {
		mux.HandleFunc("GET /health", h.HandleHealth)
	}
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Comparison and consensus
	mux.HandleFunc("POST "+prefix+"/compare", h.HandleCompare)
	mux.HandleFunc("POST "+prefix+"/candidates", h.HandleCandidates)

	// Baselines
	mux.HandleFunc("GET "+prefix+"/baselines/{equipmentType}", h.HandleGetBaseline)
	mux.HandleFunc("POST "+prefix+"/baselines/{equipmentType}/setup", h.HandleSetup)

	// Quality control
	mux.HandleFunc("POST "+prefix+"/qc", h.HandleQC)

	// Realtime
	mux.HandleFunc("GET "+prefix+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/updates/stream", h.HandleSSE)
}

// applyMiddleware wraps handler with the middleware chain. Recovery is
// outermost so panics anywhere below it become 500 envelopes.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, s.logger)))
	}

	return middleware.Chain(chain...)(handler)
}
