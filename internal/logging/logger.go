// Package logging defines the structured-logging interface used across
// slidecraft and its slog-backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Warn(ctx, "image generation failed", "slide", n, "provider", name)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning for a failure that was absorbed with a fallback.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error that propagated to the caller.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
