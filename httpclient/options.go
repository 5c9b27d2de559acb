package httpclient

import (
	"maps"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxAttempts  = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultRetryBackoff = 2.0
	DefaultUserAgent    = "Crypto-QA-Framework/1.0"

	HeaderAccept      = "Accept"
	HeaderUserAgent   = "User-Agent"
	HeaderContentType = "Content-Type"
	HeaderXRequestID  = "X-Request-ID"
	HeaderAPIKey      = "X-CMC_PRO_API_KEY"
	ContentTypeJSON   = "application/json"
)

type Option func(*Client)

func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithAPIKeyHeader overrides the header carrying the API key. The target API dictates the name.
func WithAPIKeyHeader(header string) Option {
	return func(c *Client) {
		if header != "" {
			c.apiKeyHeader = header
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetry sets the retry policy. maxAttempts counts the first try; delay is the wait
// before the first retry and is multiplied by backoff after every further failure.
// Every verb is retried, so a non-idempotent call may reach the server more than once.
func WithRetry(maxAttempts int, delay time.Duration, backoff float64) Option {
	return func(c *Client) {
		c.retry = newRetryPolicy(maxAttempts, delay, backoff)
	}
}

func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		maps.Copy(c.defaultHeaders, headers)
	}
}

// WithRateLimit throttles outgoing attempts to rps requests per second. A non-positive
// rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil

			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithRequestIDKey(key any) Option {
	return func(c *Client) {
		c.requestIDKey = key
	}
}

func WithMaxResponseSize(size int64) Option {
	return func(c *Client) {
		c.maxResponseSize = size
	}
}

type RequestOption func(*requestConfig)

type requestConfig struct {
	headers   map[string]string
	query     map[string]string
	timeout   time.Duration
	requestID string
}

func WithRequestHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.headers == nil {
			rc.headers = make(map[string]string)
		}

		rc.headers[key] = value
	}
}

// WithRequestTimeout bounds each attempt of a single call. It does not cover retry waits.
func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(rc *requestConfig) {
		rc.timeout = timeout
	}
}

func WithRequestID(requestID string) RequestOption {
	return func(rc *requestConfig) {
		rc.requestID = requestID
	}
}

func WithQuery(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string)
		}

		rc.query[key] = value
	}
}

func WithQueryParams(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string)
		}

		maps.Copy(rc.query, params)
	}
}
