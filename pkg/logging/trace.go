package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// traceEnabled gates per-sample and per-sentence logs. It is switched on by
// the level name "TRACE".
var traceEnabled atomic.Bool

// SetTrace switches trace logging on or off.
func SetTrace(on bool) { traceEnabled.Store(on) }

// TraceEnabled reports whether trace logging is on.
func TraceEnabled() bool { return traceEnabled.Load() }

// Trace logs msg at DEBUG level on logger when tracing is on.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if traceEnabled.Load() {
		logger.Log(context.Background(), slog.LevelDebug, msg, args...)
	}
}

// TraceDefault is Trace on the default logger.
func TraceDefault(msg string, args ...any) {
	Trace(slog.Default(), msg, args...)
}
