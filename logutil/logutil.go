package logutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

func ParseZerologLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger builds a timestamped logger writing JSON, or human-readable lines
// when format is "console".
func NewLogger(w io.Writer, level, format string) zerolog.Logger {
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339} //nolint:exhaustruct
	}

	return zerolog.New(w).Level(ParseZerologLevel(level)).With().Timestamp().Logger()
}

// Setup installs the global logger used through github.com/rs/zerolog/log.
func Setup(level, format string) {
	zerolog.SetGlobalLevel(ParseZerologLevel(level))
	zerolog.DurationFieldUnit = time.Millisecond

	log.Logger = NewLogger(os.Stderr, level, format)
}
