// Package logging holds the lifesim log levels and the generation trace.
//
// Operational messages go to a leveled slog.Logger on stderr. Runs started at
// debug or trace level also append typed events to <dir>/trace.jsonl; see
// Trace.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelTrace sits below Debug. The engine logs every scan region at this
// level, and the generation trace records one line per generation.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug" or "trace" (any case) to a slog.Level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger on w filtered at level. Records at
// LevelTrace print as TRACE rather than DEBUG-4.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: labelTrace,
	}))
}

func labelTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
