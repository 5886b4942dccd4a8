// Package observability provides structured logger construction for the loom
// binary and library embedders.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error".
	Level string

	// Format specifies output format: "json" or "text". JSON is the
	// production default; text reads better during development.
	Format string

	// Output is the writer for log output (defaults to os.Stderr).
	Output io.Writer

	// AddSource includes file and line number in log records.
	AddSource bool
}

// NewLogger creates a structured logger with the given configuration.
func NewLogger(config LogConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "text" {
		handler = slog.NewTextHandler(config.Output, opts)
	} else {
		handler = slog.NewJSONHandler(config.Output, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
