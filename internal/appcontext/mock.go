package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/pkg/logging"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	ClientFunc            func(context.Context) (motherdb.Client, error)
	ClientWithOptionsFunc func(context.Context, ...motherdb.Option) (motherdb.Client, error)
	LoggerFunc            func() *zerolog.Logger
	Format                string
	VersionFunc           func() string
}

// Client returns a client using the mock function or a default client.
func (m *Mock) Client(ctx context.Context) (motherdb.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx)
	}
	return motherdb.New()
}

// ClientWithOptions returns a client using the mock function, or a client
// built from the given options.
func (m *Mock) ClientWithOptions(ctx context.Context, opts ...motherdb.Option) (motherdb.Client, error) {
	if m.ClientWithOptionsFunc != nil {
		return m.ClientWithOptionsFunc(ctx, opts...)
	}
	return motherdb.New(opts...)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat returns the configured format.
func (m *Mock) OutputFormat() string {
	return m.Format
}

// Version returns version using the mock function or "test".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "test"
}

// Commit returns "test".
func (m *Mock) Commit() string { return "test" }

// Date returns "test".
func (m *Mock) Date() string { return "test" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)

// NewMock returns a Mock whose clients are built from base, followed by any
// per-call options.
func NewMock(format string, base ...motherdb.Option) *Mock {
	return &Mock{
		Format: format,
		ClientFunc: func(context.Context) (motherdb.Client, error) {
			return motherdb.New(base...)
		},
		ClientWithOptionsFunc: func(_ context.Context, opts ...motherdb.Option) (motherdb.Client, error) {
			all := append(append([]motherdb.Option{}, base...), opts...)
			return motherdb.New(all...)
		},
	}
}
