package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/andyle182810/cryptoqa/cmcapi"
	"github.com/andyle182810/cryptoqa/httpclient"
	"github.com/andyle182810/cryptoqa/metricserver"
	"github.com/andyle182810/cryptoqa/validator"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "CRYPTOQA_"

	// LegacyAPIKeyEnv is read when no key is configured under the prefix.
	LegacyAPIKeyEnv = "CMC_API_KEY" //nolint:gosec
)

var (
	ErrReadConfig    = errors.New("config: failed to read file")
	ErrParseConfig   = errors.New("config: failed to parse file")
	ErrParseEnv      = errors.New("config: failed to parse environment")
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

type Config struct {
	LogLevel               string             `env:"LOG_LEVEL"                yaml:"log_level"                validate:"oneof=trace debug info warn error fatal panic"`
	LogFormat              string             `env:"LOG_FORMAT"               yaml:"log_format"               validate:"oneof=json console"`
	API                    APIConfig          `envPrefix:"API_"               yaml:"api"`
	Monitor                MonitorConfig      `envPrefix:"MONITOR_"           yaml:"monitor"`
	MetricServer           MetricServerConfig `envPrefix:"METRIC_SERVER_"     yaml:"metric_server"`
	GracefulShutdownPeriod time.Duration      `env:"GRACEFUL_SHUTDOWN_PERIOD" yaml:"graceful_shutdown_period" validate:"gt=0"`
}

type APIConfig struct {
	BaseURL      string        `env:"BASE_URL"       yaml:"base_url"       validate:"required,http_url"`
	APIKey       string        `env:"KEY"            yaml:"api_key"`
	APIKeyHeader string        `env:"KEY_HEADER"     yaml:"api_key_header" validate:"required"`
	Timeout      time.Duration `env:"TIMEOUT"        yaml:"timeout"        validate:"gt=0"`
	RetryCount   int           `env:"RETRY_COUNT"    yaml:"retry_count"    validate:"gte=1,lte=10"`
	RetryDelay   time.Duration `env:"RETRY_DELAY"    yaml:"retry_delay"    validate:"gte=0"`
	RetryBackoff float64       `env:"RETRY_BACKOFF"  yaml:"retry_backoff"  validate:"gte=1"`
	RateLimit    float64       `env:"RATE_LIMIT"     yaml:"rate_limit"     validate:"gte=0"`
	RateBurst    int           `env:"RATE_BURST"     yaml:"rate_burst"     validate:"gte=0"`
}

type MonitorConfig struct {
	Workers         int           `env:"WORKERS"           yaml:"workers"            validate:"gte=1,lte=64"`
	Interval        time.Duration `env:"INTERVAL"          yaml:"interval"           validate:"gt=0"`
	CheckTimeout    time.Duration `env:"CHECK_TIMEOUT"     yaml:"check_timeout"      validate:"gt=0"`
	MaxLatency      time.Duration `env:"MAX_LATENCY"       yaml:"max_latency"        validate:"gt=0"`
	Convert         string        `env:"CONVERT"           yaml:"convert"            validate:"required,currency"`
	ListingLimit    int           `env:"LISTING_LIMIT"     yaml:"listing_limit"      validate:"gte=1,lte=5000"`
	MarketPairLimit int           `env:"MARKET_PAIR_LIMIT" yaml:"market_pair_limit"  validate:"gte=1,lte=5000"`
	Symbols         []string      `env:"SYMBOLS"           yaml:"symbols"            validate:"required,min=1,dive,symbol"`
	CoinIDs         []int         `env:"COIN_IDS"          yaml:"coin_ids"           validate:"required,min=1,dive,gt=0"`
	ExchangeIDs     []int         `env:"EXCHANGE_IDS"      yaml:"exchange_ids"       validate:"required,min=1,dive,gt=0"`
}

type MetricServerConfig struct {
	Enabled      bool          `env:"ENABLED"       yaml:"enabled"`
	Host         string        `env:"HOST"          yaml:"host"          validate:"required"`
	Port         int           `env:"PORT"          yaml:"port"          validate:"gte=0,lte=65535"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT"  yaml:"read_timeout"  validate:"gt=0"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" yaml:"write_timeout" validate:"gt=0"`
}

//nolint:mnd
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		API: APIConfig{
			BaseURL:      cmcapi.DefaultBaseURL,
			APIKey:       "",
			APIKeyHeader: httpclient.HeaderAPIKey,
			Timeout:      httpclient.DefaultTimeout,
			RetryCount:   httpclient.DefaultMaxAttempts,
			RetryDelay:   httpclient.DefaultRetryDelay,
			RetryBackoff: httpclient.DefaultRetryBackoff,
			RateLimit:    0,
			RateBurst:    1,
		},
		Monitor: MonitorConfig{
			Workers:         2,
			Interval:        30 * time.Second,
			CheckTimeout:    time.Minute,
			MaxLatency:      2 * time.Second,
			Convert:         cmcapi.DefaultConvert,
			ListingLimit:    10,
			MarketPairLimit: 10,
			Symbols:         []string{"BTC", "ETH"},
			CoinIDs:         []int{1, 1027},
			ExchangeIDs:     []int{270},
		},
		MetricServer: MetricServerConfig{
			Enabled:      true,
			Host:         "0.0.0.0",
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		GracefulShutdownPeriod: 10 * time.Second,
	}
}

// Load layers the YAML file at path (optional when empty) over Default, then
// CRYPTOQA_* environment variables over that, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
		}

		if err := decodeYAML(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil { //nolint:exhaustruct
		return nil, fmt.Errorf("%w: %w", ErrParseEnv, err)
	}

	if cfg.API.APIKey == "" {
		cfg.API.APIKey = os.Getenv(LegacyAPIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrParseConfig, err)
	}

	return nil
}

// LoadDotEnv exports variables from the given .env files. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("%w: %s: %w", ErrParseEnv, file, err)
		}
	}

	return nil
}

func (c *Config) Validate() error {
	if err := validator.Config().Validate(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (c APIConfig) ClientOptions() []httpclient.Option {
	opts := []httpclient.Option{
		httpclient.WithAPIKey(c.APIKey),
		httpclient.WithAPIKeyHeader(c.APIKeyHeader),
		httpclient.WithTimeout(c.Timeout),
		httpclient.WithRetry(c.RetryCount, c.RetryDelay, c.RetryBackoff),
	}

	if c.RateLimit > 0 {
		opts = append(opts, httpclient.WithRateLimit(c.RateLimit, c.RateBurst))
	}

	return opts
}

// MaskedKey returns the API key with all but the last four characters hidden.
func (c APIConfig) MaskedKey() string {
	const visible = 4

	if c.APIKey == "" {
		return ""
	}

	if len(c.APIKey) <= visible {
		return strings.Repeat("*", len(c.APIKey))
	}

	return strings.Repeat("*", len(c.APIKey)-visible) + c.APIKey[len(c.APIKey)-visible:]
}

func (c MetricServerConfig) ServerConfig(gracePeriod time.Duration) *metricserver.Config {
	return &metricserver.Config{
		Host:         c.Host,
		Port:         c.Port,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		GracePeriod:  gracePeriod,
	}
}
