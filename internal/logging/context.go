package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// FromContext extracts the logger from context. If no logger is attached it
// returns a disabled logger, so callers never need a nil check.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// WithComponent returns a context whose logger carries a component field.
func WithComponent(ctx context.Context, component string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("component", component).Logger()
	return WithContext(ctx, childLogger)
}

// WithScheme returns a context whose logger carries a stream scheme field.
func WithScheme(ctx context.Context, scheme string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("scheme", scheme).Logger()
	return WithContext(ctx, childLogger)
}

// WithURI returns a context whose logger carries a uri field.
func WithURI(ctx context.Context, uri string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("uri", uri).Logger()
	return WithContext(ctx, childLogger)
}
