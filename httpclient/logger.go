package httpclient

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// restyLogger routes resty's internal diagnostics into the global zerolog logger.
type restyLogger struct {
	logger zerolog.Logger
}

func newRestyLogger() *restyLogger {
	return &restyLogger{
		logger: log.With().Str("component", "resty").Logger(),
	}
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error().Msgf(strings.TrimSpace(format), v...)
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), v...)
}
