package config_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andyle182810/cryptoqa/config"
	"github.com/andyle182810/cryptoqa/httpclient"
	"github.com/andyle182810/cryptoqa/testutil"
	"github.com/andyle182810/cryptoqa/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
log_level: debug
log_format: console
api:
  base_url: https://sandbox-api.coinmarketcap.com
  api_key: from-file
  timeout: 5s
  retry_count: 4
  retry_delay: 250ms
  retry_backoff: 3
monitor:
  workers: 4
  symbols: [BTC, SOL]
  coin_ids: [1, 5426]
metric_server:
  port: 9191
`

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, "https://pro-api.coinmarketcap.com", cfg.API.BaseURL)
	require.Equal(t, httpclient.HeaderAPIKey, cfg.API.APIKeyHeader)
	require.Equal(t, 3, cfg.API.RetryCount)
	require.Equal(t, time.Second, cfg.API.RetryDelay)
	require.InDelta(t, 2.0, cfg.API.RetryBackoff, 0.0001)
	require.Equal(t, 2*time.Second, cfg.Monitor.MaxLatency)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) { //nolint:paralleltest
	path := testutil.WriteFile(t, "cryptoqa.yaml", sampleYAML)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, "https://sandbox-api.coinmarketcap.com", cfg.API.BaseURL)
	require.Equal(t, "from-file", cfg.API.APIKey)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, 4, cfg.API.RetryCount)
	require.Equal(t, 250*time.Millisecond, cfg.API.RetryDelay)
	require.Equal(t, []string{"BTC", "SOL"}, cfg.Monitor.Symbols)
	require.Equal(t, []int{1, 5426}, cfg.Monitor.CoinIDs)
	require.Equal(t, 9191, cfg.MetricServer.Port)

	// untouched keys keep their defaults
	require.Equal(t, httpclient.HeaderAPIKey, cfg.API.APIKeyHeader)
	require.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	require.Equal(t, []int{270}, cfg.Monitor.ExchangeIDs)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := testutil.WriteFile(t, "cryptoqa.yaml", sampleYAML)

	t.Setenv("CRYPTOQA_API_KEY", "from-env")
	t.Setenv("CRYPTOQA_API_RETRY_COUNT", "2")
	t.Setenv("CRYPTOQA_MONITOR_SYMBOLS", "ETH,BNB")
	t.Setenv("CRYPTOQA_METRIC_SERVER_ENABLED", "false")
	t.Setenv("CRYPTOQA_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.API.APIKey)
	require.Equal(t, 2, cfg.API.RetryCount)
	require.Equal(t, []string{"ETH", "BNB"}, cfg.Monitor.Symbols)
	require.False(t, cfg.MetricServer.Enabled)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
}

func TestLoad_LegacyAPIKeyVariable(t *testing.T) {
	t.Setenv(config.LegacyAPIKeyEnv, "legacy-key")

	cfg, err := config.Load("")

	require.NoError(t, err)
	require.Equal(t, "legacy-key", cfg.API.APIKey)
}

func TestLoad_PrefixedKeyWinsOverLegacy(t *testing.T) {
	t.Setenv(config.LegacyAPIKeyEnv, "legacy-key")
	t.Setenv("CRYPTOQA_API_KEY", "new-key")

	cfg, err := config.Load("")

	require.NoError(t, err)
	require.Equal(t, "new-key", cfg.API.APIKey)
}

func TestLoad_MissingFile(t *testing.T) { //nolint:paralleltest
	_, err := config.Load("/nonexistent/cryptoqa.yaml")

	require.ErrorIs(t, err, config.ErrReadConfig)
}

func TestLoad_UnknownKeyIsRejected(t *testing.T) { //nolint:paralleltest
	path := testutil.WriteFile(t, "cryptoqa.yaml", "api:\n  base_uri: https://example.com\n")

	_, err := config.Load(path)

	require.ErrorIs(t, err, config.ErrParseConfig)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) { //nolint:paralleltest
	path := testutil.WriteFile(t, "cryptoqa.yaml", "")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	require.Equal(t, config.Default().API.BaseURL, cfg.API.BaseURL)
}

func TestLoad_InvalidValuesAreReported(t *testing.T) { //nolint:paralleltest
	path := testutil.WriteFile(t, "cryptoqa.yaml", `
log_level: loud
api:
  retry_count: 0
monitor:
  convert: usd
  symbols: [btc]
`)

	_, err := config.Load(path)

	require.ErrorIs(t, err, config.ErrInvalidConfig)

	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
	require.ElementsMatch(t, []string{
		"log_level",
		"api.retry_count",
		"monitor.convert",
		"monitor.symbols[0]",
	}, validationErrs.Fields())
}

func TestLoadDotEnv(t *testing.T) {
	path := testutil.WriteFile(t, ".env", "CRYPTOQA_MONITOR_WORKERS=7\n")

	t.Setenv("CRYPTOQA_MONITOR_WORKERS", "")
	require.NoError(t, os.Unsetenv("CRYPTOQA_MONITOR_WORKERS"))

	require.NoError(t, config.LoadDotEnv("/nonexistent/.env", path))

	cfg, err := config.Load("")

	require.NoError(t, err)
	require.Equal(t, 7, cfg.Monitor.Workers)
}

func TestMaskedKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key      string
		expected string
	}{
		{key: "", expected: ""},
		{key: "abc", expected: "***"},
		{key: "b54bcf4d-1bca-4e8e-9a24-22ff2c3d462c", expected: strings.Repeat("*", 32) + "462c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, config.APIConfig{APIKey: tt.key}.MaskedKey()) //nolint:exhaustruct
	}
}

func TestClientOptions_ConfigureClient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	apiCfg := config.Default().API
	apiCfg.APIKey = "secret"
	apiCfg.APIKeyHeader = "X-Api-Key"
	apiCfg.RetryCount = 5
	apiCfg.RateLimit = 100
	apiCfg.RateBurst = 2

	client := httpclient.New(server.URL, apiCfg.ClientOptions()...)

	_, err := client.Get(t.Context(), "/ping")

	require.NoError(t, err)
	require.Equal(t, 5, client.MaxAttempts())
}

func TestMetricServerConfig_ServerConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	serverCfg := cfg.MetricServer.ServerConfig(cfg.GracefulShutdownPeriod)

	require.Equal(t, "0.0.0.0", serverCfg.Host)
	require.Equal(t, 9090, serverCfg.Port)
	require.Equal(t, 10*time.Second, serverCfg.GracePeriod)
}
