// Package log builds the [slog.Logger] used across schemaplay, backed by a
// charmbracelet/log handler.
package log

import (
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

const (
	JSONFormat   = "json"
	TextFormat   = "text"
	LogfmtFormat = "logfmt"
)

// New creates a [slog.Logger] writing to w.
func New(w io.Writer, logLevel, logFormat string) *slog.Logger {
	return slog.New(CreateHandler(w, logLevel, logFormat))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// CreateHandler creates a [slog.Handler] by strings.
func CreateHandler(w io.Writer, logLevel, logFormat string) slog.Handler {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           GetLevel(logLevel),
		Formatter:       GetFormatter(logFormat),
		ReportTimestamp: true,
	})
}

// GetLevel parses a level name. Unknown names mean warn.
func GetLevel(level string) charmlog.Level {
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		return charmlog.ErrorLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "info":
		return charmlog.InfoLevel
	case "debug", "trace":
		return charmlog.DebugLevel
	default:
		return charmlog.WarnLevel
	}
}

// GetFormatter parses a format name. Unknown names mean text.
func GetFormatter(format string) charmlog.Formatter {
	switch strings.ToLower(format) {
	case JSONFormat:
		return charmlog.JSONFormatter
	case LogfmtFormat:
		return charmlog.LogfmtFormatter
	default:
		return charmlog.TextFormatter
	}
}
