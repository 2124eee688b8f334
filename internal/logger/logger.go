package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger on stdout with level from string. Services use it.
func New(level string) *slog.Logger {
	return NewWriter(os.Stdout, level, false)
}

// NewWriter returns a structured logger writing to w. text selects the
// human-readable handler, used by the CLI so stdout stays free for results.
func NewWriter(w io.Writer, level string, text bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
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
