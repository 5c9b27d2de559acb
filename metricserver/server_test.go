package metricserver_test

import (
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/andyle182810/cryptoqa/metricserver"
	"github.com/andyle182810/cryptoqa/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *metricserver.Config {
	return &metricserver.Config{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		GracePeriod:  time.Second,
	}
}

func TestStatus_MergesStatusFunc(t *testing.T) {
	t.Parallel()

	server := metricserver.New(testConfig(),
		metricserver.WithGatherer(prometheus.NewRegistry()),
		metricserver.WithStatus(func() map[string]any {
			return map[string]any{"checks": 3}
		}),
	)

	rec := testutil.Serve(t, server.Handler(), http.MethodGet, metricserver.StatusPath)

	testutil.AssertStatusCode(t, rec, http.StatusOK)

	var body map[string]any
	testutil.AssertJSONResponse(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.InDelta(t, 3.0, body["checks"], 0.001)
}

func TestStatus_WithoutStatusFunc(t *testing.T) {
	t.Parallel()

	server := metricserver.New(testConfig(), metricserver.WithGatherer(prometheus.NewRegistry()))

	rec := testutil.Serve(t, server.Handler(), http.MethodGet, metricserver.StatusPath)

	testutil.AssertStatusCode(t, rec, http.StatusOK)
	testutil.AssertResponseContains(t, rec, `"status":"ok"`)
}

func TestMetrics_ServesGatherer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{ //nolint:exhaustruct
		Name: "cryptoqa_test_events_total",
		Help: "Events seen by the test.",
	})
	reg.MustRegister(counter)
	counter.Add(7)

	server := metricserver.New(testConfig(), metricserver.WithGatherer(reg))

	rec := testutil.Serve(t, server.Handler(), http.MethodGet, metricserver.MetricsPath)

	testutil.AssertStatusCode(t, rec, http.StatusOK)
	testutil.AssertResponseContains(t, rec, "cryptoqa_test_events_total 7")
}

func TestUnknownPath(t *testing.T) {
	t.Parallel()

	server := metricserver.New(testConfig(), metricserver.WithGatherer(prometheus.NewRegistry()))

	rec := testutil.Serve(t, server.Handler(), http.MethodGet, "/nope")

	testutil.AssertStatusCode(t, rec, http.StatusNotFound)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	server := metricserver.New(testConfig(), metricserver.WithGatherer(prometheus.NewRegistry()))
	require.Equal(t, "metric-server", server.Name())

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start(t.Context())
	}()

	testutil.EventuallyWithMessage(t, func() bool {
		return server.Addr() != nil
	}, 2*time.Second, 10*time.Millisecond, "server should bind a listener")

	resp, err := http.Get("http://" + server.Addr().String() + metricserver.StatusPath) //nolint:noctx
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"status":"ok"`)

	require.NoError(t, server.Stop())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestStart_InvalidAddress(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Host = "256.256.256.256"

	server := metricserver.New(cfg, metricserver.WithGatherer(prometheus.NewRegistry()))

	err := server.Start(t.Context())

	require.Error(t, err)
	require.False(t, errors.Is(err, http.ErrServerClosed))
}
