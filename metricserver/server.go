package metricserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const (
	MetricsPath = "/metrics"
	StatusPath  = "/status"

	defaultGracePeriod = 10 * time.Second
)

type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	GracePeriod  time.Duration
}

// StatusFunc reports extra fields for the /status endpoint.
type StatusFunc func() map[string]any

type Server struct {
	gracePeriod time.Duration
	address     string
	echo        *echo.Echo
}

type Option func(*options)

type options struct {
	gatherer prometheus.Gatherer
	status   StatusFunc
}

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) {
		if g != nil {
			o.gatherer = g
		}
	}
}

func WithStatus(fn StatusFunc) Option {
	return func(o *options) {
		o.status = fn
	}
}

func New(cfg *Config, opts ...Option) *Server {
	o := &options{
		gatherer: prometheus.DefaultGatherer,
		status:   nil,
	}

	for _, opt := range opts {
		opt(o)
	}

	ech := echo.New()
	ech.Server.ReadTimeout = cfg.ReadTimeout
	ech.Server.WriteTimeout = cfg.WriteTimeout
	ech.HideBanner = true
	ech.HidePort = true
	ech.Use(requestLogger)

	ech.GET(StatusPath, func(ctx echo.Context) error {
		body := map[string]any{"status": "ok"}

		if o.status != nil {
			for k, v := range o.status() {
				body[k] = v
			}
		}

		return ctx.JSON(http.StatusOK, body)
	})

	ech.GET(MetricsPath, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: o.gatherer,
	}))

	gracePeriod := cfg.GracePeriod
	if gracePeriod <= 0 {
		gracePeriod = defaultGracePeriod
	}

	return &Server{
		gracePeriod: gracePeriod,
		address:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		echo:        ech,
	}
}

// Start serves until Stop is called. It returns nil after a graceful shutdown.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("address", s.address).Msg("Starting metrics server")

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.gracePeriod)
	defer cancel()

	log.Info().Msg("Initiating graceful shutdown of metrics server")

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully shut down metrics server")

		return err
	}

	log.Info().Msg("Metrics server shutdown complete")

	return nil
}

func (s *Server) Name() string {
	return "metric-server"
}

// Addr returns the bound listener address, or nil before Start has bound.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

func (s *Server) Handler() http.Handler {
	return s.echo
}
