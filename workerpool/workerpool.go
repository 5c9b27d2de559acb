package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("workerpool: already running")

type Executor interface {
	Execute(ctx context.Context) error
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context) error

func (f ExecutorFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

type Stats struct {
	Dispatched uint64
	Succeeded  uint64
	Failed     uint64
}

// WorkerPool hands one job per tick to the first idle worker. A tick that finds
// every worker busy waits for one to free up, so slow executions stretch the
// effective interval instead of piling up.
type WorkerPool struct {
	name           string
	executor       Executor
	workerCount    int
	tickInterval   time.Duration
	execTimeout    time.Duration
	immediateStart bool
	jobChan        chan struct{}
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	mu             sync.Mutex
	running        bool
	dispatched     atomic.Uint64
	succeeded      atomic.Uint64
	failed         atomic.Uint64
}

type Option func(*WorkerPool)

func New(executor Executor, opts ...Option) *WorkerPool {
	pool := &WorkerPool{
		name:           "worker-pool",
		executor:       executor,
		workerCount:    1,
		tickInterval:   time.Second,
		execTimeout:    0,
		immediateStart: false,
		jobChan:        nil,
		cancel:         nil,
		wg:             sync.WaitGroup{},
		mu:             sync.Mutex{},
		running:        false,
		dispatched:     atomic.Uint64{},
		succeeded:      atomic.Uint64{},
		failed:         atomic.Uint64{},
	}

	for _, opt := range opts {
		opt(pool)
	}

	return pool
}

func WithWorkerCount(count int) Option {
	return func(pool *WorkerPool) {
		if count > 0 {
			pool.workerCount = count
		}
	}
}

func WithTickInterval(duration time.Duration) Option {
	return func(pool *WorkerPool) {
		if duration > 0 {
			pool.tickInterval = duration
		}
	}
}

func WithExecutionTimeout(timeout time.Duration) Option {
	return func(pool *WorkerPool) {
		if timeout > 0 {
			pool.execTimeout = timeout
		}
	}
}

// WithImmediateStart dispatches the first job on Start instead of after the first tick.
func WithImmediateStart() Option {
	return func(pool *WorkerPool) {
		pool.immediateStart = true
	}
}

func WithName(name string) Option {
	return func(pool *WorkerPool) {
		if name != "" {
			pool.name = name
		}
	}
}

func (pool *WorkerPool) Name() string {
	return pool.name
}

func (pool *WorkerPool) Stats() Stats {
	return Stats{
		Dispatched: pool.dispatched.Load(),
		Succeeded:  pool.succeeded.Load(),
		Failed:     pool.failed.Load(),
	}
}

func (pool *WorkerPool) Running() bool {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	return pool.running
}

func (pool *WorkerPool) Start(ctx context.Context) error {
	pool.mu.Lock()
	if pool.running {
		pool.mu.Unlock()

		return ErrAlreadyRunning
	}

	pool.running = true
	pool.jobChan = make(chan struct{})

	workerCtx, cancel := context.WithCancel(ctx)
	pool.cancel = cancel
	pool.mu.Unlock()

	log.Info().
		Str("pool", pool.name).
		Int("worker_count", pool.workerCount).
		Dur("tick_interval", pool.tickInterval).
		Dur("exec_timeout", pool.execTimeout).
		Msg("Worker pool is starting")

	for workerID := range pool.workerCount {
		pool.wg.Add(1)

		go pool.worker(workerCtx, workerID)
	}

	pool.wg.Add(1)

	go pool.dispatcher(workerCtx)

	return nil
}

func (pool *WorkerPool) Stop() error {
	pool.mu.Lock()
	if !pool.running {
		pool.mu.Unlock()

		return nil
	}

	pool.running = false
	pool.mu.Unlock()

	log.Info().Str("pool", pool.name).Msg("Worker pool is stopping")

	if pool.cancel != nil {
		pool.cancel()
	}

	pool.wg.Wait()

	stats := pool.Stats()

	log.Info().
		Str("pool", pool.name).
		Uint64("dispatched", stats.Dispatched).
		Uint64("succeeded", stats.Succeeded).
		Uint64("failed", stats.Failed).
		Msg("Worker pool has stopped")

	return nil
}

func (pool *WorkerPool) dispatcher(ctx context.Context) {
	defer pool.wg.Done()
	defer close(pool.jobChan)

	ticker := time.NewTicker(pool.tickInterval)
	defer ticker.Stop()

	log.Debug().Str("pool", pool.name).Msg("Dispatcher has started")

	if pool.immediateStart && !pool.dispatch(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("pool", pool.name).Msg("Dispatcher is shutting down")

			return
		case <-ticker.C:
			if !pool.dispatch(ctx) {
				return
			}
		}
	}
}

// dispatch hands one job to a worker; false means ctx ended first.
func (pool *WorkerPool) dispatch(ctx context.Context) bool {
	select {
	case pool.jobChan <- struct{}{}:
		pool.dispatched.Add(1)

		return true
	case <-ctx.Done():
		log.Debug().Str("pool", pool.name).Msg("Dispatcher is shutting down")

		return false
	}
}

func (pool *WorkerPool) worker(ctx context.Context, id int) {
	defer pool.wg.Done()

	log.Debug().
		Str("pool", pool.name).
		Int("worker_id", id).
		Msg("Worker has started")

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-pool.jobChan:
			if !ok {
				return
			}

			pool.executeWithTimeout(ctx, id)
		}
	}
}

func (pool *WorkerPool) executeWithTimeout(ctx context.Context, workerID int) {
	var (
		execCtx context.Context
		cancel  context.CancelFunc
	)

	if pool.execTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, pool.execTimeout)
	} else {
		execCtx, cancel = context.WithCancel(ctx)
	}

	defer cancel()

	err := pool.executor.Execute(execCtx)
	if err != nil {
		pool.failed.Add(1)

		log.Error().
			Err(err).
			Str("pool", pool.name).
			Int("worker_id", workerID).
			Msg("Executor failed")

		return
	}

	pool.succeeded.Add(1)
}
