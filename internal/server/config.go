package server

import (
	"time"

	"github.com/agentstation/motherdb/pkg/sources"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix   string
	MaxBodyBytes int64 // Upper bound for request bodies (parameter dumps)

	// Source settings. Source IDs in requests resolve to files below
	// SourceDir; Provider, when set, replaces the file provider.
	SourceDir string
	Provider  sources.Provider

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Performance settings
	RateLimit int           // Requests per minute per IP (0 to disable)
	CacheTTL  time.Duration // How long baseline lookups stay cached

	// HTTP timeouts. WriteTimeout 0 keeps realtime streams open.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		PathPrefix:   "/api/v1",
		MaxBodyBytes: 32 << 20,
		SourceDir:    ".",
		CORSEnabled:  false,
		CORSOrigins:  []string{},
		RateLimit:    100,
		CacheTTL:     5 * time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
}
