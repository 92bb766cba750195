// Package logging configures the process logger.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a logger writing JSON to out. In debug mode it writes
// human-readable console output at debug level instead.
func New(out io.Writer, debug bool) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "docindex").Logger()
}

// Setup installs logger as the global and default context logger.
func Setup(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := New(os.Stderr, debug)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger carried by ctx, falling back to the
// default context logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
