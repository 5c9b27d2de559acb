package metricserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLogger logs each scrape. Successful requests go to debug so a busy
// Prometheus does not flood the log.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()

		err := next(ctx)
		if err != nil {
			ctx.Error(err)
		}

		req := ctx.Request()
		status := ctx.Response().Status

		event := levelFor(status).
			Str("remote_ip", ctx.RealIP()).
			Str("request", req.Method+" "+req.URL.Path).
			Int("status", status).
			Int64("size", ctx.Response().Size).
			Dur("latency", time.Since(start))

		if err != nil {
			event = event.Err(err)
		}

		event.Msg("Metric server request")

		return nil
	}
}

func levelFor(status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Error()
	case status >= http.StatusBadRequest:
		return log.Warn()
	default:
		return log.Debug()
	}
}
