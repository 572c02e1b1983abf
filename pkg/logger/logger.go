package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/config"
)

// ServiceName is attached to every log line
const ServiceName = "threaded-comments-api"

// New creates a new zerolog logger with structured output on stdout
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))
}

// NewWithWriter builds the logger on w. Console output is used when the
// format is "pretty", in development, or when w is a terminal.
func NewWithWriter(cfg config.LogConfig, w io.Writer, terminal bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	logLevel := ParseLevel(cfg.Level)

	// Use pretty console output in development
	if cfg.Format == "pretty" || cfg.IsDevelopment() || (terminal && cfg.Format != "json") {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(logLevel).
			With().
			Timestamp().
			Caller().
			Str("service", ServiceName).
			Logger()
	}

	// JSON output for production
	return zerolog.New(w).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
