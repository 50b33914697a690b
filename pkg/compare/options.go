package compare

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb/pkg/cache"
	"github.com/agentstation/motherdb/pkg/constants"
)

// options configures an Engine.
type options struct {
	cache          *cache.Cache
	chunkThreshold int64
	chunkSize      int
	workers        int
	logger         *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		chunkThreshold: constants.DefaultChunkThresholdBytes,
		chunkSize:      constants.DefaultChunkSize,
		workers:        constants.DefaultLoadWorkers,
	}
}

// Option is a function that configures an Engine.
type Option func(*options)

func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCache sets the comparison cache. Without one, useCache is ignored.
func WithCache(c *cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithChunkThreshold sets the total input size, in bytes, above which
// sources are merged in chunks.
func WithChunkThreshold(bytes int64) Option {
	return func(o *options) {
		if bytes > 0 {
			o.chunkThreshold = bytes
		}
	}
}

// WithChunkSize sets how many sources are merged per chunk.
func WithChunkSize(sources int) Option {
	return func(o *options) {
		if sources > 0 {
			o.chunkSize = sources
		}
	}
}

// WithWorkers bounds the number of sources loaded concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger overrides the logger taken from the call context.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
