package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	fakeAPIKeyHeader = "X-CMC_PRO_API_KEY" //nolint:gosec

	errorCodeInvalidKey   = 1001
	errorCodeBadParameter = 400
)

// Failure describes one injected fault. A zero Status with Malformed false and
// ErrorCode zero only applies Delay.
type Failure struct {
	Status    int
	ErrorCode int
	Message   string
	Delay     time.Duration
	Malformed bool
}

type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// MarketAPI is an in-process market-data API speaking the status/data envelope.
type MarketAPI struct {
	server   *httptest.Server
	apiKey   string
	mu       sync.Mutex
	latency  time.Duration
	failures map[string][]Failure
	always   map[string]Failure
	requests []RecordedRequest
}

type MarketAPIOption func(*MarketAPI)

// WithRequiredAPIKey rejects requests that do not carry key with a 401 envelope.
func WithRequiredAPIKey(key string) MarketAPIOption {
	return func(m *MarketAPI) {
		m.apiKey = key
	}
}

// WithLatency delays every response.
func WithLatency(d time.Duration) MarketAPIOption {
	return func(m *MarketAPI) {
		m.latency = d
	}
}

func NewMarketAPI(t *testing.T, opts ...MarketAPIOption) *MarketAPI {
	t.Helper()

	api := &MarketAPI{
		server:   nil,
		apiKey:   "",
		mu:       sync.Mutex{},
		latency:  0,
		failures: make(map[string][]Failure),
		always:   make(map[string]Failure),
		requests: nil,
	}

	for _, opt := range opts {
		opt(api)
	}

	ech := echo.New()
	ech.HideBanner = true
	ech.HidePort = true
	ech.Use(api.record, api.authenticate, api.inject)

	ech.GET("/v1/cryptocurrency/listings/latest", api.listings)
	ech.GET("/v2/cryptocurrency/info", api.coinInfo)
	ech.GET("/v2/cryptocurrency/quotes/latest", api.coinQuotes)
	ech.GET("/v1/exchange/listings/latest", api.exchangeListings)
	ech.GET("/v1/exchange/info", api.exchangeInfo)
	ech.GET("/v1/exchange/market-pairs/latest", api.exchangeMarketPairs)
	ech.GET("/v1/exchange/quotes/latest", api.exchangeQuotes)
	ech.GET("/v1/global-metrics/quotes/latest", api.globalMetrics)

	api.server = httptest.NewServer(ech)
	t.Cleanup(api.server.Close)

	return api
}

func (m *MarketAPI) URL() string {
	return m.server.URL
}

// FailNext queues n copies of f for path; each request to path consumes one.
func (m *MarketAPI) FailNext(path string, n int, f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for range n {
		m.failures[path] = append(m.failures[path], f)
	}
}

// FailAlways makes every request to path fail with f until Reset.
func (m *MarketAPI) FailAlways(path string, f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.always[path] = f
}

func (m *MarketAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures = make(map[string][]Failure)
	m.always = make(map[string]Failure)
	m.requests = nil
}

func (m *MarketAPI) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]RecordedRequest(nil), m.requests...)
}

func (m *MarketAPI) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0

	for _, r := range m.requests {
		if r.Path == path {
			count++
		}
	}

	return count
}

func (m *MarketAPI) LastRequest() (RecordedRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.requests) == 0 {
		return RecordedRequest{}, false //nolint:exhaustruct
	}

	return m.requests[len(m.requests)-1], true
}

func (m *MarketAPI) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
		})
		m.mu.Unlock()

		return next(c)
	}
}

func (m *MarketAPI) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.apiKey != "" && c.Request().Header.Get(fakeAPIKeyHeader) != m.apiKey {
			return writeError(c, http.StatusUnauthorized, errorCodeInvalidKey, "This API Key is invalid.")
		}

		return next(c)
	}
}

func (m *MarketAPI) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path

		m.mu.Lock()
		delay := m.latency

		var (
			failure Failure
			found   bool
		)

		if queue := m.failures[path]; len(queue) > 0 {
			failure, found = queue[0], true
			m.failures[path] = queue[1:]
		} else if f, ok := m.always[path]; ok {
			failure, found = f, true
		}
		m.mu.Unlock()

		if found && failure.Delay > 0 {
			delay += failure.Delay
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request().Context().Done():
				return nil
			}
		}

		switch {
		case !found:
			return next(c)
		case failure.Malformed:
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"status": {"error_code": 0`))
		case failure.Status != 0 || failure.ErrorCode != 0:
			status := failure.Status
			if status == 0 {
				status = http.StatusOK
			}

			return writeError(c, status, failure.ErrorCode, failure.Message)
		default:
			return next(c)
		}
	}
}

func envelope(data any) map[string]any {
	return map[string]any{
		"status": map[string]any{
			"timestamp":     time.Now().UTC(),
			"error_code":    0,
			"error_message": nil,
			"elapsed":       3,
			"credit_count":  1,
			"notice":        nil,
		},
		"data": data,
	}
}

func writeError(c echo.Context, status, code int, message string) error {
	return c.JSON(status, map[string]any{
		"status": map[string]any{
			"timestamp":     time.Now().UTC(),
			"error_code":    code,
			"error_message": message,
			"elapsed":       0,
			"credit_count":  0,
		},
	})
}

func badParameter(c echo.Context, name, value string) error {
	return writeError(c, http.StatusBadRequest, errorCodeBadParameter,
		fmt.Sprintf("Invalid value for %q: %q", name, value))
}

func queryLimit(c echo.Context, fallback int) (int, bool) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 5000 {
		return 0, false
	}

	return limit, true
}

func queryConvert(c echo.Context) (string, bool) {
	convert := strings.ToUpper(c.QueryParam("convert"))
	if convert == "" {
		return "USD", true
	}

	_, ok := conversionRates[convert]

	return convert, ok
}

func queryIDs(c echo.Context) ([]int, bool) {
	raw := c.QueryParam("id")
	if raw == "" {
		return nil, false
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))

	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, false
		}

		ids = append(ids, id)
	}

	return ids, true
}

func (m *MarketAPI) listings(c echo.Context) error {
	limit, ok := queryLimit(c, 100)
	if !ok {
		return badParameter(c, "limit", c.QueryParam("limit"))
	}

	convert, ok := queryConvert(c)
	if !ok {
		return badParameter(c, "convert", c.QueryParam("convert"))
	}

	start := 1
	if raw := c.QueryParam("start"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			return badParameter(c, "start", raw)
		}

		start = value
	}

	data := make([]map[string]any, 0, limit)

	for _, coin := range coins {
		if coin.Rank < start {
			continue
		}

		if len(data) >= limit {
			break
		}

		data = append(data, coin.listing(convert))
	}

	return c.JSON(http.StatusOK, envelope(data))
}

func (m *MarketAPI) coinInfo(c echo.Context) error {
	raw := c.QueryParam("symbol")
	if raw == "" {
		return writeError(c, http.StatusBadRequest, errorCodeBadParameter,
			`"value" must contain at least one of [id, symbol, slug, address]`)
	}

	data := make(map[string][]map[string]any)

	for _, symbol := range strings.Split(raw, ",") {
		coin, ok := findCoinBySymbol(strings.ToUpper(strings.TrimSpace(symbol)))
		if !ok {
			return badParameter(c, "symbol", symbol)
		}

		data[coin.Symbol] = []map[string]any{coin.info()}
	}

	return c.JSON(http.StatusOK, envelope(data))
}

func (m *MarketAPI) coinQuotes(c echo.Context) error {
	ids, ok := queryIDs(c)
	if !ok {
		return badParameter(c, "id", c.QueryParam("id"))
	}

	convert, ok := queryConvert(c)
	if !ok {
		return badParameter(c, "convert", c.QueryParam("convert"))
	}

	data := make(map[string]map[string]any, len(ids))

	for _, id := range ids {
		coin, found := findCoinByID(id)
		if !found {
			return badParameter(c, "id", strconv.Itoa(id))
		}

		data[strconv.Itoa(id)] = coin.listing(convert)
	}

	return c.JSON(http.StatusOK, envelope(data))
}

func (m *MarketAPI) exchangeListings(c echo.Context) error {
	limit, ok := queryLimit(c, 100)
	if !ok {
		return badParameter(c, "limit", c.QueryParam("limit"))
	}

	convert, ok := queryConvert(c)
	if !ok {
		return badParameter(c, "convert", c.QueryParam("convert"))
	}

	data := make([]map[string]any, 0, limit)

	for _, exchange := range exchanges {
		if len(data) >= limit {
			break
		}

		data = append(data, exchange.listing(convert))
	}

	return c.JSON(http.StatusOK, envelope(data))
}

func (m *MarketAPI) exchangeInfo(c echo.Context) error {
	ids, ok := queryIDs(c)
	if !ok {
		return badParameter(c, "id", c.QueryParam("id"))
	}

	data := make(map[string]map[string]any, len(ids))

	for _, id := range ids {
		exchange, found := findExchange(id)
		if !found {
			return badParameter(c, "id", strconv.Itoa(id))
		}

		data[strconv.Itoa(id)] = exchange.info()
	}

	return c.JSON(http.StatusOK, envelope(data))
}

func (m *MarketAPI) exchangeMarketPairs(c echo.Context) error {
	ids, ok := queryIDs(c)
	if !ok || len(ids) != 1 {
		return badParameter(c, "id", c.QueryParam("id"))
	}

	limit, ok := queryLimit(c, 100)
	if !ok {
		return badParameter(c, "limit", c.QueryParam("limit"))
	}

	exchange, found := findExchange(ids[0])
	if !found {
		return badParameter(c, "id", c.QueryParam("id"))
	}

	return c.JSON(http.StatusOK, envelope(exchange.marketPairs(limit)))
}

func (m *MarketAPI) exchangeQuotes(c echo.Context) error {
	ids, ok := queryIDs(c)
	if !ok {
		return badParameter(c, "id", c.QueryParam("id"))
	}

	convert, ok := queryConvert(c)
	if !ok {
		return badParameter(c, "convert", c.QueryParam("convert"))
	}

	data := make(map[string]map[string]any, len(ids))

	for _, id := range ids {
		exchange, found := findExchange(id)
		if !found {
			return badParameter(c, "id", strconv.Itoa(id))
		}

		data[strconv.Itoa(id)] = exchange.listing(convert)
	}

	return c.JSON(http.StatusOK, envelope(data))
}

func (m *MarketAPI) globalMetrics(c echo.Context) error {
	convert, ok := queryConvert(c)
	if !ok {
		return badParameter(c, "convert", c.QueryParam("convert"))
	}

	return c.JSON(http.StatusOK, envelope(globalMetrics(convert)))
}
