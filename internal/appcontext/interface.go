// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete App.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb"
)

// Interface defines the application context that commands need.
// The App struct from cmd/motherdb/app implements it.
type Interface interface {
	// Client returns the default client, creating it lazily if needed.
	Client(ctx context.Context) (motherdb.Client, error)

	// ClientWithOptions creates a client from the configured options plus
	// the given ones. Use this when a command overrides a setting, such as
	// setup with --dry-run.
	ClientWithOptions(ctx context.Context, opts ...motherdb.Option) (motherdb.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
