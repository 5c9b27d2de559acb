package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/andyle182810/cryptoqa/cmcapi"
	"github.com/andyle182810/cryptoqa/monitor"
	"github.com/andyle182810/cryptoqa/testutil"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()

	return testutil.WriteFile(t, "cryptoqa.yaml", `
log_level: error
api:
  base_url: `+baseURL+`
  retry_count: 1
  retry_delay: 0s
monitor:
  interval: 50ms
  check_timeout: 5s
  max_latency: 5s
metric_server:
  host: 127.0.0.1
  port: 0
graceful_shutdown_period: 2s
`)
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", "/nonexistent/.env"))

	err := root.ExecuteContext(ctx)

	return out.String(), err
}

func TestCheckCommand_AllPass(t *testing.T) { //nolint:paralleltest
	api := testutil.NewMarketAPI(t)

	out, err := execute(t, t.Context(), "check", "--config", writeConfig(t, api.URL()))

	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	require.True(t, strings.HasPrefix(lines[0], "CHECK"))
	require.Contains(t, out, monitor.CheckGlobalMetrics)
	require.NotContains(t, out, string(monitor.OutcomeFailure))
}

func TestCheckCommand_FailureExitsWithError(t *testing.T) { //nolint:paralleltest
	api := testutil.NewMarketAPI(t)
	api.FailAlways(cmcapi.PathExchangeInfo, testutil.Failure{ //nolint:exhaustruct
		Status:    http.StatusBadGateway,
		ErrorCode: 502,
		Message:   "upstream unavailable",
	})

	out, err := execute(t, t.Context(), "check", "--config", writeConfig(t, api.URL()))

	require.ErrorIs(t, err, ErrChecksFailed)
	require.Contains(t, out, "upstream unavailable")
}

func TestCheckCommand_InvalidConfig(t *testing.T) { //nolint:paralleltest
	path := testutil.WriteFile(t, "cryptoqa.yaml", "api:\n  retry_count: 0\n")

	_, err := execute(t, t.Context(), "check", "--config", path)

	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChecksFailed)
}

func TestMonitorCommand_RunsUntilCancelled(t *testing.T) { //nolint:paralleltest
	api := testutil.NewMarketAPI(t)

	ctx := testutil.CancelAfter(t, 500*time.Millisecond)

	_, err := execute(t, ctx, "monitor", "--config", writeConfig(t, api.URL()))

	require.NoError(t, err)
	require.NotEmpty(t, api.Requests())
	require.Positive(t, api.Hits(cmcapi.PathListingsLatest))
}

func TestVerdict(t *testing.T) {
	t.Parallel()

	ok := monitor.Result{Check: "a", Outcome: monitor.OutcomeSuccess}  //nolint:exhaustruct
	slow := monitor.Result{Check: "b", Outcome: monitor.OutcomeSlow}   //nolint:exhaustruct
	bad := monitor.Result{Check: "c", Outcome: monitor.OutcomeFailure} //nolint:exhaustruct

	require.NoError(t, verdict([]monitor.Result{ok, slow}, 2))
	require.ErrorIs(t, verdict([]monitor.Result{ok, bad}, 2), ErrChecksFailed)
	require.ErrorIs(t, verdict([]monitor.Result{ok}, 2), ErrChecksFailed)
}
