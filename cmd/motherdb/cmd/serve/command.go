// Package serve provides the serve command, which runs the HTTP API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/internal/server"
)

// shutdownTimeout bounds connection draining after a shutdown signal.
const shutdownTimeout = 30 * time.Second

// NewCommand creates the serve command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "management",
		Short:   "Start the HTTP API with WebSocket and SSE updates",
		Long: `Serve exposes comparison, candidate analysis, baseline setup and QC over
HTTP, using the same configuration as the CLI.

Endpoints (under --prefix, default /api/v1):
  POST /compare                        compare sources or inline datasets (?use_cache=true)
  POST /candidates                     consensus analysis (?use_cache=true)
  GET  /baselines/{type}               stored baseline
  POST /baselines/{type}/setup         reconcile and save (?dry_run=true)
  POST /qc                             QC a dump (?format=html|csv|markdown)
  GET  /updates/ws, /updates/stream    baseline and QC events (?equipment_type=)
  GET  /health, /ready

Source IDs in requests are file paths relative to --source-dir; absolute
paths and paths leaving that directory are rejected.

HTTP_HOST and HTTP_PORT override --host and --port.`,
		Example: `  motherdb serve
  motherdb serve --port 3000 --rate-limit 60
  motherdb serve --source-dir /srv/dumps
  motherdb serve --cors-origins "https://fab.example"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().String("source-dir", defaults.SourceDir, "Directory that source IDs in requests resolve against")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated, implies --cors)")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "How long baseline lookups stay cached")
	cmd.Flags().Int64("max-body", defaults.MaxBodyBytes, "Maximum request body in bytes")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout (0 keeps streams open)")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	return cmd
}

func runServer(cmd *cobra.Command, app appcontext.Interface) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Str("source_dir", cfg.SourceDir).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return startWithGracefulShutdown(cmd.Context(), cmd.OutOrStdout(), httpServer, srv, logger)
}

// parseConfig reads the flags, then the HTTP_HOST and HTTP_PORT overrides.
func parseConfig(cmd *cobra.Command) (server.Config, error) {
	flags := cmd.Flags()
	cfg := server.Config{
		Host:         must(flags.GetString("host")),
		Port:         must(flags.GetInt("port")),
		PathPrefix:   must(flags.GetString("prefix")),
		SourceDir:    must(flags.GetString("source-dir")),
		MaxBodyBytes: must(flags.GetInt64("max-body")),
		CORSEnabled:  must(flags.GetBool("cors")),
		CORSOrigins:  must(flags.GetStringSlice("cors-origins")),
		RateLimit:    must(flags.GetInt("rate-limit")),
		CacheTTL:     must(flags.GetDuration("cache-ttl")),
		ReadTimeout:  must(flags.GetDuration("read-timeout")),
		WriteTimeout: must(flags.GetDuration("write-timeout")),
		IdleTimeout:  must(flags.GetDuration("idle-timeout")),
	}
	if len(cfg.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
	}

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		port, err := parsePort(envPort)
		if err != nil {
			return server.Config{}, err
		}
		cfg.Port = port
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		cfg.Host = envHost
	}

	return cfg, nil
}

// must unwraps a flag lookup. Only flags defined in this package are read,
// so an error is a programming error.
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag: %v", err))
	}
	return v
}

// parsePort parses and range-checks a port number.
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// startWithGracefulShutdown serves until ctx is cancelled (SIGINT/SIGTERM
// from main), then drains connections and stops the background services.
func startWithGracefulShutdown(ctx context.Context, out io.Writer, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	_, _ = fmt.Fprintf(out, "API server listening on %s\n", ln.Addr())
	_, _ = fmt.Fprintln(out, "   Press Ctrl+C to stop")

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
		_, _ = fmt.Fprintln(out, "\nShutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}
