// Package logger builds the process-wide slog.Logger from configuration
// strings, so main and tests construct logging the same way.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format constants accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a *slog.Logger writing to stderr at the given level
// ("debug", "info", "warn", "error"; unknown values mean info) in the given
// format ("text" or "json"; unknown values mean text).
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination, for tests and output
// redirection.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to its slog.Level, case-insensitively.
// "warning" is accepted as an alias for "warn"; anything unrecognized
// resolves to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
