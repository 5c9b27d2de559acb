package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultShutdownTimeout = 30 * time.Second

var (
	ErrServicePanic    = errors.New("runner: service panicked")
	ErrServiceFailed   = errors.New("runner: service failed")
	ErrShutdownTimeout = errors.New("runner: shutdown timeout exceeded")
	ErrNoServices      = errors.New("runner: no services registered")
)

type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Runner starts infrastructure services (metrics endpoint) before core services
// (check workers) and stops them in reverse order.
type Runner struct {
	coreServices           []Service
	infrastructureServices []Service
	shutdownTimeout        time.Duration
	signals                []os.Signal
}

type Option func(*Runner)

func New(opts ...Option) *Runner {
	runner := &Runner{
		coreServices:           make([]Service, 0),
		infrastructureServices: make([]Service, 0),
		shutdownTimeout:        defaultShutdownTimeout,
		signals:                []os.Signal{os.Interrupt, syscall.SIGTERM},
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

func WithCoreService(svc Service) Option {
	return func(r *Runner) {
		r.coreServices = append(r.coreServices, svc)
		log.Debug().
			Str("service_type", "core").
			Str("service_name", svc.Name()).
			Msg("Core service registered")
	}
}

func WithInfrastructureService(svc Service) Option {
	return func(r *Runner) {
		r.infrastructureServices = append(r.infrastructureServices, svc)
		log.Debug().
			Str("service_type", "infrastructure").
			Str("service_name", svc.Name()).
			Msg("Infrastructure service registered")
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.shutdownTimeout = d
		}
	}
}

// WithSignals replaces the signals that trigger shutdown. No signals means only
// the parent context ends the run.
func WithSignals(signals ...os.Signal) Option {
	return func(r *Runner) {
		r.signals = signals
	}
}

// Run starts every service and blocks until ctx is done, a shutdown signal
// arrives, or a service fails. All services are stopped before it returns. The
// returned error is nil on a clean signal- or context-driven shutdown.
func (r *Runner) Run(ctx context.Context) error {
	total := len(r.coreServices) + len(r.infrastructureServices)
	if total == 0 {
		return ErrNoServices
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(r.signals) > 0 {
		var stop context.CancelFunc

		runCtx, stop = signal.NotifyContext(runCtx, r.signals...)
		defer stop()
	}

	errCh := make(chan error, total)

	log.Info().Msg("Starting infrastructure services")
	r.startServices(runCtx, r.infrastructureServices, errCh)

	log.Info().Msg("Starting core services")
	r.startServices(runCtx, r.coreServices, errCh)

	log.Info().
		Int("pid", os.Getpid()).
		Int("core_services", len(r.coreServices)).
		Int("infra_services", len(r.infrastructureServices)).
		Msg("All services started, waiting for shutdown signal")

	var runErr error

	select {
	case <-runCtx.Done():
		log.Warn().Msg("Shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Service failed, shutting down")
	}

	cancel()

	shutdownErr := errors.Join(
		r.shutdownWithTimeout(r.coreServices),
		r.shutdownWithTimeout(r.infrastructureServices),
	)

	if shutdownErr == nil {
		log.Info().Msg("Graceful shutdown completed")
	}

	return errors.Join(runErr, shutdownErr)
}

func (r *Runner) startServices(ctx context.Context, services []Service, errCh chan<- error) {
	for _, svc := range services {
		go func(service Service) {
			defer func() {
				if rec := recover(); rec != nil {
					errCh <- fmt.Errorf("%w: %s: %v", ErrServicePanic, service.Name(), rec)
				}
			}()

			log.Info().Str("service_name", service.Name()).Msg("Starting service")

			if err := service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%w: %s: %w", ErrServiceFailed, service.Name(), err)
			}
		}(svc)
	}
}

func (r *Runner) shutdownWithTimeout(services []Service) error {
	if len(services) == 0 {
		return nil
	}

	done := make(chan struct{})

	go func() {
		r.concurrentStop(services)
		close(done)
	}()

	timer := time.NewTimer(r.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		log.Error().
			Dur("timeout", r.shutdownTimeout).
			Msg("Shutdown timeout exceeded, some services may not have stopped cleanly")

		return ErrShutdownTimeout
	}
}

func (r *Runner) concurrentStop(services []Service) {
	var wg sync.WaitGroup

	for _, svc := range services {
		wg.Add(1)

		go func(service Service) {
			defer wg.Done()

			log.Info().Str("service_name", service.Name()).Msg("Stopping service")

			if err := service.Stop(); err != nil {
				log.Error().
					Err(err).
					Str("service_name", service.Name()).
					Msg("Service failed to stop")

				return
			}

			log.Info().
				Str("service_name", service.Name()).
				Msg("Service stopped")
		}(svc)
	}

	wg.Wait()
}
