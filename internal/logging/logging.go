// Package logging builds the process slog logger.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

// New returns a logger writing to w in the configured format and level.
// Unknown levels fall back to info; unknown formats fall back to JSON.
func New(cfg domain.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
