package logger

import (
	"log/slog"
	"os"

	"github.com/JaimeStill/persistent-context/internal/config"
)

// Logger wraps the structured logger used throughout the service.
type Logger struct {
	*slog.Logger
}

// New creates a new structured logger based on configuration.
func New(cfg *config.LoggingConfig) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// WithFields adds arbitrary fields to the logger context.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// Setup sets up the global slog default and returns the wrapped logger.
func Setup(cfg *config.LoggingConfig) *Logger {
	l := New(cfg)
	slog.SetDefault(l.Logger)
	return l
}
