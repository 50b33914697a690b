// Package app provides the application context and dependency management
// for the motherdb CLI. It centralizes configuration, logging, the baseline
// store and the motherdb client.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/cache"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/reconcile"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the motherdb application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Lazily created, shared by every command of one invocation
	mu     sync.Mutex
	store  baseline.Store
	cache  *cache.Cache
	client motherdb.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, err
		}
		app.config = config
	}

	if app.logger == nil {
		logger := NewLogger(app.config)
		app.logger = &logger
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Client returns the motherdb client, creating it lazily if needed.
func (a *App) Client(ctx context.Context) (motherdb.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.clientOptionsLocked(ctx)
	if err != nil {
		return nil, err
	}
	client, err := motherdb.New(opts...)
	if err != nil {
		return nil, errors.NewConfigurationError("client", "creating client", err)
	}
	a.client = client
	return client, nil
}

// ClientWithOptions returns a new client built from the configuration plus
// opts, which take precedence. The store and cache are shared with Client.
func (a *App) ClientWithOptions(ctx context.Context, opts ...motherdb.Option) (motherdb.Client, error) {
	a.mu.Lock()
	base, err := a.clientOptionsLocked(ctx)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	client, err := motherdb.New(append(base, opts...)...)
	if err != nil {
		return nil, errors.NewConfigurationError("client", "creating client", err)
	}
	return client, nil
}

// Shutdown releases the baseline store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if closer, ok := a.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return errors.WrapIO("close", "baseline store", err)
		}
	}
	a.store = nil
	a.client = nil
	return nil
}

// clientOptionsLocked builds client options from the configuration.
// a.mu must be held.
func (a *App) clientOptionsLocked(ctx context.Context) ([]motherdb.Option, error) {
	if a.store == nil {
		store, err := openStore(ctx, a.config)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	if a.cache == nil {
		a.cache = cache.New(a.config.CacheCapacity, cache.WithTTL(a.config.CacheTTL))
	}

	c := a.config
	opts := []motherdb.Option{
		motherdb.WithStore(a.store),
		motherdb.WithCache(a.cache),
		motherdb.WithThresholds(consensus.Thresholds{
			MinOccurrenceRate:   c.MinOccurrenceRate,
			ConfidenceThreshold: c.ConfidenceThreshold,
		}),
		motherdb.WithCompareOptions(
			compare.WithChunkThreshold(int64(c.ChunkThresholdMB)*1024*1024),
			compare.WithChunkSize(c.ChunkSize),
			compare.WithWorkers(c.Workers),
			compare.WithLogger(a.logger),
		),
		motherdb.WithReconcileOptions(
			reconcile.WithPolicy(reconcile.Policy{UpdateFactor: c.UpdateFactor, KeepFactor: c.KeepFactor}),
			reconcile.WithStrategy(reconcile.StrategyByName(c.Strategy)),
		),
		motherdb.WithRequireRegistered(c.RequireRegistered),
		motherdb.WithQCOptions(
			qc.WithAutoAdvancedThreshold(c.AutoAdvancedThreshold),
			qc.WithCountCriticalAsFailure(c.CountCriticalAsFailure),
			qc.WithLogger(a.logger),
		),
		motherdb.WithAnalyzerOptions(
			qc.WithOutlierMethod(qc.OutlierMethod(c.OutlierMethod)),
			qc.WithZScoreThreshold(c.ZScoreThreshold),
			qc.WithIQRMultiplier(c.IQRMultiplier),
			qc.WithCorrelationThreshold(c.CorrelationThreshold),
		),
	}
	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "cannot be nil")
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the baseline store instead of opening the configured one.
func WithStore(store baseline.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// withNopLogger silences the app, for tests.
func withNopLogger() Option {
	return WithLogger(logging.NewNopLogger())
}
