package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/reconcile"
)

// EnvPrefix prefixes every environment variable the CLI reads. Logging
// variables are read by pkg/logging, which also accepts them unprefixed.
const EnvPrefix = "MOTHERDB"

// Store drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Comparison engine
	ChunkThresholdMB int
	ChunkSize        int
	Workers          int
	CacheCapacity    int
	CacheTTL         time.Duration

	// Candidate analysis and conflict resolution
	MinOccurrenceRate   float64
	ConfidenceThreshold float64
	UpdateFactor        float64
	KeepFactor          float64
	Strategy            string
	RequireRegistered   bool

	// QC
	AutoAdvancedThreshold  int
	CountCriticalAsFailure bool
	OutlierMethod          string
	ZScoreThreshold        float64
	IQRMultiplier          float64
	CorrelationThreshold   float64

	// Baseline store
	StoreDriver string
	StoreDSN    string
	StoreDir    string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (MOTHERDB_ prefix)
// 3. .env files
// 4. Config file (configFile, or .motherdb.yaml in home or the working directory)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".motherdb")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the search path may come up empty.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigurationError("config", "reading config file", err)
		}
	}

	logEnv := logging.FromEnv()
	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		ChunkThresholdMB: v.GetInt("compare.chunk_threshold_mb"),
		ChunkSize:        v.GetInt("compare.chunk_size"),
		Workers:          v.GetInt("compare.workers"),
		CacheCapacity:    v.GetInt("cache.capacity"),
		CacheTTL:         v.GetDuration("cache.ttl"),

		MinOccurrenceRate:   v.GetFloat64("consensus.min_occurrence_rate"),
		ConfidenceThreshold: v.GetFloat64("consensus.confidence_threshold"),
		UpdateFactor:        v.GetFloat64("reconcile.update_factor"),
		KeepFactor:          v.GetFloat64("reconcile.keep_factor"),
		Strategy:            v.GetString("reconcile.strategy"),
		RequireRegistered:   v.GetBool("reconcile.require_registered"),

		AutoAdvancedThreshold:  v.GetInt("qc.auto_advanced_threshold"),
		CountCriticalAsFailure: v.GetBool("qc.count_critical_as_failure"),
		OutlierMethod:          v.GetString("qc.outlier_method"),
		ZScoreThreshold:        v.GetFloat64("qc.zscore_threshold"),
		IQRMultiplier:          v.GetFloat64("qc.iqr_multiplier"),
		CorrelationThreshold:   v.GetFloat64("qc.correlation_threshold"),

		StoreDriver: v.GetString("store.driver"),
		StoreDSN:    v.GetString("store.dsn"),
		StoreDir:    v.GetString("store.dir"),

		// Logging configuration
		LogLevel:  logEnv.Level,
		LogFormat: logEnv.Format,
		LogOutput: logEnv.Output,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers every key so AutomaticEnv can resolve nested keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("no_color", false)
	v.SetDefault("format", "")

	v.SetDefault("compare.chunk_threshold_mb", constants.DefaultChunkThresholdBytes/(1024*1024))
	v.SetDefault("compare.chunk_size", constants.DefaultChunkSize)
	v.SetDefault("compare.workers", constants.DefaultLoadWorkers)
	v.SetDefault("cache.capacity", constants.DefaultCacheCapacity)
	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetDefault("consensus.min_occurrence_rate", constants.DefaultMinOccurrenceRate)
	v.SetDefault("consensus.confidence_threshold", constants.DefaultConfidenceThreshold)
	v.SetDefault("reconcile.update_factor", constants.DefaultUpdateFactor)
	v.SetDefault("reconcile.keep_factor", constants.DefaultKeepFactor)
	v.SetDefault("reconcile.strategy", "confidence")
	v.SetDefault("reconcile.require_registered", false)

	v.SetDefault("qc.auto_advanced_threshold", constants.DefaultAutoAdvancedThreshold)
	v.SetDefault("qc.count_critical_as_failure", true)
	v.SetDefault("qc.outlier_method", string(qc.OutlierZScore))
	v.SetDefault("qc.zscore_threshold", constants.DefaultZScoreThreshold)
	v.SetDefault("qc.iqr_multiplier", constants.IQRMultiplier)
	v.SetDefault("qc.correlation_threshold", constants.DefaultCorrelationThreshold)

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.dir", defaultStoreDir())
}

// Validate checks settings the engines would otherwise silently replace.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFile, DriverMemory, DriverPostgres, DriverSQLite:
	default:
		return errors.NewConfigurationError("store", "unknown driver "+c.StoreDriver, nil)
	}
	if (c.StoreDriver == DriverPostgres || c.StoreDriver == DriverSQLite) && c.StoreDSN == "" {
		return errors.NewConfigurationError("store", c.StoreDriver+" requires store.dsn", nil)
	}
	switch qc.OutlierMethod(c.OutlierMethod) {
	case qc.OutlierZScore, qc.OutlierIQR:
	default:
		return errors.NewConfigurationError("qc", "unknown outlier method "+c.OutlierMethod, nil)
	}
	if c.MinOccurrenceRate < 0 || c.MinOccurrenceRate > 1 || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.NewConfigurationError("consensus", "thresholds must be within [0, 1]", nil)
	}
	if reconcile.StrategyByName(c.Strategy) == nil {
		return errors.NewConfigurationError("reconcile", "unknown strategy "+c.Strategy, nil)
	}
	if c.ChunkSize < 1 || c.Workers < 1 {
		return errors.NewConfigurationError("compare", "chunk_size and workers must be positive", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// defaultStoreDir is where the file store keeps baselines.
func defaultStoreDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".motherdb", "baselines")
	}
	return filepath.Join(".motherdb", "baselines")
}
