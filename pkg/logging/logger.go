// Package logging carries the zerolog logger used across motherdb.
//
// Library code pulls its logger from the context so a caller can attach
// request or equipment-type fields once and have every engine log with them:
//
//	ctx = logging.WithEquipmentType(ctx, "etch-300")
//	logging.FromContext(ctx).Info().Int("saved", n).Msg("baseline updated")
//
// Without a logger in the context the package default is used; it is built
// from the MOTHERDB_LOG_* environment (LOG_* also accepted) at start-up.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLogger(FromEnv())

// Default returns the package logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the package logger and zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}
