package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andyle182810/cryptoqa/cmcapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const defaultMaxLatency = 2 * time.Second

var (
	ErrNoChecks        = errors.New("monitor: no checks configured")
	ErrCheckFailed     = errors.New("monitor: check failed")
	ErrAssertion       = errors.New("monitor: assertion failed")
	ErrRegisterMetrics = errors.New("monitor: failed to register metrics")
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSlow    Outcome = "slow"
	OutcomeFailure Outcome = "failure"
)

// Check is one synthetic probe against the market-data API.
type Check struct {
	Name string
	Run  func(ctx context.Context, client *cmcapi.Client) error
}

type Result struct {
	Check    string
	Outcome  Outcome
	Duration time.Duration
	At       time.Time
	Err      error
}

type CheckStats struct {
	Name          string
	Runs          uint64
	Successes     uint64
	Slow          uint64
	Failures      uint64
	LastOutcome   Outcome
	LastDuration  time.Duration
	MaxDuration   time.Duration
	TotalDuration time.Duration
	LastError     string
	LastRun       time.Time
}

// SuccessRate is the share of runs that did not fail, in percent. Slow runs count
// as successes.
func (s CheckStats) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}

	return float64(s.Successes+s.Slow) / float64(s.Runs) * 100 //nolint:mnd
}

func (s CheckStats) AverageDuration() time.Duration {
	if s.Runs == 0 {
		return 0
	}

	return s.TotalDuration / time.Duration(s.Runs) //nolint:gosec
}

// Monitor runs checks round-robin, one per Execute call, and records outcomes in
// Prometheus and in memory.
type Monitor struct {
	client     *cmcapi.Client
	checks     []Check
	maxLatency time.Duration
	registerer prometheus.Registerer
	metrics    *metrics
	next       atomic.Uint64
	mu         sync.Mutex
	stats      map[string]*CheckStats
}

type Option func(*Monitor)

// WithMaxLatency marks successful checks slower than d as slow.
func WithMaxLatency(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.maxLatency = d
		}
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Monitor) {
		if reg != nil {
			m.registerer = reg
		}
	}
}

func New(client *cmcapi.Client, checks []Check, opts ...Option) (*Monitor, error) {
	if len(checks) == 0 {
		return nil, ErrNoChecks
	}

	mon := &Monitor{
		client:     client,
		checks:     checks,
		maxLatency: defaultMaxLatency,
		registerer: prometheus.DefaultRegisterer,
		metrics:    nil,
		next:       atomic.Uint64{},
		mu:         sync.Mutex{},
		stats:      make(map[string]*CheckStats, len(checks)),
	}

	for _, opt := range opts {
		opt(mon)
	}

	for _, check := range checks {
		mon.stats[check.Name] = &CheckStats{Name: check.Name} //nolint:exhaustruct
	}

	m, err := newMetrics(mon.registerer)
	if err != nil {
		return nil, err
	}

	mon.metrics = m

	return mon, nil
}

// Execute runs the next check in rotation. Slow checks do not return an error.
func (m *Monitor) Execute(ctx context.Context) error {
	idx := (m.next.Add(1) - 1) % uint64(len(m.checks))
	result := m.RunCheck(ctx, m.checks[idx])

	if result.Outcome == OutcomeFailure {
		return fmt.Errorf("%w: %s: %w", ErrCheckFailed, result.Check, result.Err)
	}

	return nil
}

// RunAll runs every check once, in order, and returns their results.
func (m *Monitor) RunAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(m.checks))

	for _, check := range m.checks {
		if ctx.Err() != nil {
			break
		}

		results = append(results, m.RunCheck(ctx, check))
	}

	return results
}

func (m *Monitor) RunCheck(ctx context.Context, check Check) Result {
	start := time.Now()
	err := check.Run(ctx, m.client)
	elapsed := time.Since(start)

	result := Result{
		Check:    check.Name,
		Outcome:  m.classify(err, elapsed),
		Duration: elapsed,
		At:       start,
		Err:      err,
	}

	m.record(result)
	m.metrics.observe(result)

	logResult(result, m.maxLatency)

	return result
}

func (m *Monitor) classify(err error, elapsed time.Duration) Outcome {
	switch {
	case err != nil:
		return OutcomeFailure
	case elapsed > m.maxLatency:
		return OutcomeSlow
	default:
		return OutcomeSuccess
	}
}

func (m *Monitor) record(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.stats[r.Check]
	if !ok {
		stats = &CheckStats{Name: r.Check} //nolint:exhaustruct
		m.stats[r.Check] = stats
	}

	stats.Runs++
	stats.LastOutcome = r.Outcome
	stats.LastDuration = r.Duration
	stats.TotalDuration += r.Duration
	stats.LastRun = r.At
	stats.MaxDuration = max(stats.MaxDuration, r.Duration)

	switch r.Outcome {
	case OutcomeSuccess:
		stats.Successes++
	case OutcomeSlow:
		stats.Slow++
	case OutcomeFailure:
		stats.Failures++
		stats.LastError = r.Err.Error()
	}
}

// Snapshot returns a copy of the per-check statistics in check order.
func (m *Monitor) Snapshot() []CheckStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CheckStats, 0, len(m.checks))
	for _, check := range m.checks {
		out = append(out, *m.stats[check.Name])
	}

	return out
}

// Status summarises the snapshot for the metric server's status endpoint.
func (m *Monitor) Status() map[string]any {
	checks := make(map[string]any, len(m.checks))

	for _, s := range m.Snapshot() {
		checks[s.Name] = map[string]any{
			"runs":           s.Runs,
			"success_rate":   s.SuccessRate(),
			"last_outcome":   s.LastOutcome,
			"avg_latency_ms": s.AverageDuration().Milliseconds(),
		}
	}

	return map[string]any{"checks": checks}
}

func logResult(r Result, maxLatency time.Duration) {
	switch r.Outcome {
	case OutcomeSuccess:
		log.Info().
			Str("check", r.Check).
			Dur("duration", r.Duration).
			Msg("Check passed")
	case OutcomeSlow:
		log.Warn().
			Str("check", r.Check).
			Dur("duration", r.Duration).
			Dur("max_latency", maxLatency).
			Msg("Check passed but exceeded latency threshold")
	case OutcomeFailure:
		log.Warn().
			Err(r.Err).
			Str("check", r.Check).
			Int("api_error_code", cmcapi.ErrorCode(r.Err)).
			Dur("duration", r.Duration).
			Msg("Check failed")
	}
}
