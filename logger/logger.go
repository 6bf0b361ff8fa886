// Package logger provides structured logging for the repository core.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger for application-wide logging
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Output io.Writer
}

// New creates a new structured logger
func New(cfg Config) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithComponent returns a logger with a component attribute
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

// WithRepository returns a logger carrying the active adapter and epoch.
func (l *Logger) WithRepository(typeName string, epoch uint64) *Logger {
	return &Logger{Logger: l.With("repository", typeName, "epoch", epoch)}
}

// WithTrack returns a logger with track context attributes
func (l *Logger) WithTrack(trackID, title string) *Logger {
	return &Logger{Logger: l.With("track_id", trackID, "track_title", title)}
}

// Default returns a default logger for quick usage
func Default() *Logger {
	return New(Config{Level: "info", Format: "text"})
}
