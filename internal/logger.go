package internal

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel accepts the names slog understands ("debug", "INFO",
// "warn+2", ...). ok is false when s is not one of them.
func ParseLogLevel(s string) (level slog.Level, ok bool) {
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}

// NewLogger builds the process logger. Deployed environments log JSON for
// the collector and everything else logs text. Every record carries the
// service name.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	lvl, ok := ParseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl < slog.LevelInfo}

	var h slog.Handler
	switch env {
	case "production", "staging":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h).With(slog.String("service", "epharmacy"))
	if !ok {
		logger.Warn("unknown log level, using info", slog.String("value", level))
	}
	return logger
}
