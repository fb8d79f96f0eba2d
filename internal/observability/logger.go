// Package observability provides the structured logger, Prometheus metrics,
// and the optional metrics HTTP endpoint for the batch converter.
package observability

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/config"
)

// NewLogger builds a slog.Logger honoring LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
