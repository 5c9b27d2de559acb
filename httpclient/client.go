package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Client struct {
	baseURL         string
	apiKey          string
	apiKeyHeader    string
	timeout         time.Duration
	httpClient      *http.Client
	retry           retryPolicy
	limiter         *rate.Limiter
	requestIDKey    any
	defaultHeaders  map[string]string
	maxResponseSize int64 // 0 means no limit
	sleep           sleepFunc
	session         *resty.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       "",
		apiKeyHeader: HeaderAPIKey,
		timeout:      DefaultTimeout,
		httpClient:   nil,
		retry:        defaultRetryPolicy(),
		limiter:      nil,
		requestIDKey: nil,
		defaultHeaders: map[string]string{
			HeaderAccept:    ContentTypeJSON,
			HeaderUserAgent: DefaultUserAgent,
		},
		maxResponseSize: 0,
		sleep:           sleepContext,
		session:         nil,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{} //nolint:exhaustruct
	}

	// resty writes the timeout onto the client it wraps; keep the caller's untouched.
	httpClient := *c.httpClient
	c.httpClient = &httpClient

	c.session = resty.NewWithClient(c.httpClient).
		SetTimeout(c.timeout).
		SetLogger(newRestyLogger()).
		SetHeaders(c.defaultHeaders)

	if c.apiKey != "" {
		c.session.SetHeader(c.apiKeyHeader, c.apiKey)
	}

	return c
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, opts...)
}

func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	body any,
	opts ...RequestOption,
) (*Response, error) {
	return c.do(ctx, method, path, body, opts...)
}

// Close releases the idle connections held by the session pool.
func (c *Client) Close() {
	c.session.GetClient().CloseIdleConnections()

	log.Debug().Str("base_url", c.baseURL).Msg("HTTP client session closed")
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) MaxAttempts() int {
	return c.retry.maxAttempts
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	opts ...RequestOption,
) (*Response, error) {
	cfg := c.buildRequestConfig(ctx, opts...)

	target, err := c.buildURL(path)
	if err != nil {
		return nil, err
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 1; attempt <= c.retry.maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, method, target, payload, cfg, attempt)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}

		if attempt == c.retry.maxAttempts {
			break
		}

		wait := c.retry.delayAfter(attempt)

		log.Warn().
			Err(err).
			Str("method", method).
			Str("url", target).
			Str("request_id", cfg.requestID).
			Int("attempt", attempt).
			Int("max_attempts", c.retry.maxAttempts).
			Dur("wait", wait).
			Msg("Request attempt failed, retrying")

		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrRetryAborted, err, lastErr)
		}
	}

	log.Error().
		Err(lastErr).
		Str("method", method).
		Str("url", target).
		Str("request_id", cfg.requestID).
		Int("attempts", c.retry.maxAttempts).
		Msg("Request failed after all attempts")

	return nil, fmt.Errorf("%w: after %d attempts: %w", ErrRetriesExhausted, c.retry.maxAttempts, lastErr)
}

func (c *Client) attempt(
	ctx context.Context,
	method string,
	target string,
	payload []byte,
	cfg *requestConfig,
	attempt int,
) (*Response, error) {
	reqCtx := ctx

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(reqCtx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRateLimitWait, err)
		}
	}

	req := c.session.R().
		SetContext(reqCtx).
		SetDoNotParseResponse(true).
		SetHeaders(cfg.headers).
		SetHeader(HeaderXRequestID, cfg.requestID)

	if len(cfg.query) > 0 {
		req.SetQueryParams(cfg.query)
	}

	if payload != nil {
		req.SetHeader(HeaderContentType, ContentTypeJSON).SetBody(payload)
	}

	log.Info().
		Str("method", method).
		Str("url", target).
		Str("request_id", cfg.requestID).
		Int("attempt", attempt).
		Msg("Sending request")

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	body, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Int("attempt", attempt).
		Msg("Response received")

	return handleResponse(resp, body, cfg.requestID)
}

// readBody drains the raw body, reading at most one byte past maxResponseSize.
func (c *Client) readBody(resp *resty.Response) ([]byte, error) {
	raw := resp.RawBody()
	if raw == nil {
		return nil, nil
	}
	defer raw.Close()

	var reader io.Reader = raw
	if c.maxResponseSize > 0 {
		reader = io.LimitReader(raw, c.maxResponseSize+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	if c.maxResponseSize > 0 && int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxResponseSize)
	}

	return body, nil
}

func (c *Client) buildRequestConfig(ctx context.Context, opts ...RequestOption) *requestConfig {
	cfg := &requestConfig{
		headers:   make(map[string]string),
		query:     nil,
		timeout:   0,
		requestID: "",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.requestID == "" {
		cfg.requestID = c.extractRequestID(ctx)
	}

	return cfg
}

func (c *Client) extractRequestID(ctx context.Context) string {
	if c.requestIDKey != nil {
		if id, ok := ctx.Value(c.requestIDKey).(string); ok && id != "" {
			return id
		}
	}

	return uuid.New().String()
}

func (c *Client) buildURL(path string) (string, error) {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	fullURL := c.baseURL + path

	parsed, err := url.Parse(fullURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCreateRequest, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute URL", ErrCreateRequest, fullURL)
	}

	return fullURL, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	if raw, ok := body.([]byte); ok {
		return raw, nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
	}

	return payload, nil
}

func handleResponse(resp *resty.Response, body []byte, requestID string) (*Response, error) {
	respRequestID := resp.Header().Get(HeaderXRequestID)
	if respRequestID == "" {
		respRequestID = requestID
	}

	if !resp.IsSuccess() {
		return nil, newServiceErrorFromBody(resp.StatusCode(), body, respRequestID)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
		RequestID:  respRequestID,
		Duration:   resp.Time(),
	}, nil
}

func newServiceErrorFromBody(statusCode int, body []byte, requestID string) *ServiceError {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if message, code := errResp.text(); message != "" {
			return NewServiceError(statusCode, message, code, requestID)
		}
	}

	return NewServiceError(statusCode, strings.TrimSpace(string(body)), 0, requestID)
}
