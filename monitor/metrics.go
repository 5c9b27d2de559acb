package monitor

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cryptoqa"

type metrics struct {
	total       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct
			Namespace: metricsNamespace,
			Name:      "check_total",
			Help:      "Number of synthetic API checks run, by check and outcome.",
		}, []string{"check", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{ //nolint:exhaustruct
			Namespace: metricsNamespace,
			Name:      "check_duration_seconds",
			Help:      "Wall time of synthetic API checks, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"check"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{ //nolint:exhaustruct
			Namespace: metricsNamespace,
			Name:      "check_last_success_timestamp_seconds",
			Help:      "Unix time of the last check that did not fail.",
		}, []string{"check"}),
	}

	registered := make([]prometheus.Collector, 0, 3)

	for _, collector := range []prometheus.Collector{m.total, m.duration, m.lastSuccess} {
		if err := reg.Register(collector); err != nil {
			for _, done := range registered {
				reg.Unregister(done)
			}

			return nil, fmt.Errorf("%w: %w", ErrRegisterMetrics, err)
		}

		registered = append(registered, collector)
	}

	return m, nil
}

func (m *metrics) observe(r Result) {
	m.total.WithLabelValues(r.Check, string(r.Outcome)).Inc()
	m.duration.WithLabelValues(r.Check).Observe(r.Duration.Seconds())

	if r.Outcome != OutcomeFailure {
		m.lastSuccess.WithLabelValues(r.Check).Set(float64(r.At.Unix()))
	}
}
