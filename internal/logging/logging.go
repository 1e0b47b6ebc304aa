// Package logging configures the leveled logger shared by all depscan
// components.
//
// Depscan uses log/slog with one extra level below DEBUG: VERBOSE,
// for per-line extraction chatter. Ordering is
// VERBOSE < DEBUG < INFO < WARN < ERROR; only messages at or above the
// configured threshold are emitted. The sink is append-only (stderr);
// nothing in the core branches on logger output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelVerbose sits below slog.LevelDebug.
const LevelVerbose = slog.LevelDebug - 4

// New returns a text-handler logger writing to w at the given threshold.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Render the custom level by name instead of "DEBUG-4".
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelVerbose {
					a.Value = slog.StringValue("VERBOSE")
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// Verbose logs at LevelVerbose.
func Verbose(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelVerbose, msg, args...)
}
