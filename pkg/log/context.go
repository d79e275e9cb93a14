package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithStreamer tags the context logger with the streamer whose events are
// being processed, so status lines from any ingestion path carry it.
func WithStreamer(ctx context.Context, username string) context.Context {
	l := Ctx(ctx)
	return WithLogger(ctx, l.With().Str(FieldStreamer, username).Logger())
}
