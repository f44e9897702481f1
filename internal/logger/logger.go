package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a JSON logger writing to w at the named level. Unknown levels fall back to info.
func New(w io.Writer, level, service string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})).
		With("service", service)
}

// Setup installs New as the process-wide default logger.
func Setup(w io.Writer, level, service string) *slog.Logger {
	l := New(w, level, service)
	slog.SetDefault(l)
	return l
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
