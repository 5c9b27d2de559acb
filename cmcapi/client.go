package cmcapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andyle182810/cryptoqa/httpclient"
	"github.com/andyle182810/cryptoqa/validator"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://pro-api.coinmarketcap.com"
	DefaultConvert = "USD"

	MinLimit = 1
	MaxLimit = 5000

	PathListingsLatest      = "/v1/cryptocurrency/listings/latest"
	PathCryptocurrencyInfo  = "/v2/cryptocurrency/info"
	PathQuotesLatest        = "/v2/cryptocurrency/quotes/latest"
	PathExchangeListings    = "/v1/exchange/listings/latest"
	PathExchangeInfo        = "/v1/exchange/info"
	PathExchangeMarketPairs = "/v1/exchange/market-pairs/latest"
	PathExchangeQuotes      = "/v1/exchange/quotes/latest"
	PathGlobalMetrics       = "/v1/global-metrics/quotes/latest"
)

type Client struct {
	http      *httpclient.Client
	validator *validator.Validator
}

func New(http *httpclient.Client) *Client {
	return &Client{
		http:      http,
		validator: validator.Payload(),
	}
}

func (c *Client) HTTP() *httpclient.Client {
	return c.http
}

func (c *Client) Close() {
	c.http.Close()
}

type ListingsParams struct {
	Start   int    `json:"start"   validate:"gte=0"`
	Limit   int    `json:"limit"   validate:"gte=1,lte=5000"`
	Convert string `json:"convert" validate:"omitempty,currency"`
}

func (p ListingsParams) query() map[string]string {
	query := map[string]string{
		"limit":   strconv.Itoa(p.Limit),
		"convert": convertOrDefault(p.Convert),
	}

	if p.Start > 0 {
		query["start"] = strconv.Itoa(p.Start)
	}

	return query
}

// ListingsLatest returns the top cryptocurrencies by market cap.
func (c *Client) ListingsLatest(ctx context.Context, params ListingsParams) (*Result[[]Cryptocurrency], error) {
	if err := c.checkArgs(params); err != nil {
		return nil, err
	}

	result, err := get[[]Cryptocurrency](ctx, c, PathListingsLatest, params.query())
	if err != nil {
		return nil, err
	}

	if err := validator.ValidateAll(c.validator, result.Data); err != nil {
		return nil, fmt.Errorf("%w: listings: %w", ErrInvalidPayload, err)
	}

	return result, nil
}

// CryptocurrencyInfo returns metadata keyed by symbol. A symbol can map to
// several coins.
func (c *Client) CryptocurrencyInfo(ctx context.Context, symbols ...string) (*Result[map[string][]CoinInfo], error) {
	normalized, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}

	result, err := get[map[string][]CoinInfo](ctx, c, PathCryptocurrencyInfo, map[string]string{
		"symbol": strings.Join(normalized, ","),
	})
	if err != nil {
		return nil, err
	}

	for symbol, coins := range result.Data {
		if err := validator.ValidateAll(c.validator, coins); err != nil {
			return nil, fmt.Errorf("%w: info %s: %w", ErrInvalidPayload, symbol, err)
		}
	}

	return result, nil
}

// QuotesLatest returns the latest quotes keyed by the decimal id.
func (c *Client) QuotesLatest(
	ctx context.Context,
	ids []int,
	convert string,
) (*Result[map[string]Cryptocurrency], error) {
	joined, err := joinIDs(ids)
	if err != nil {
		return nil, err
	}

	if err := c.checkConvert(convert); err != nil {
		return nil, err
	}

	result, err := get[map[string]Cryptocurrency](ctx, c, PathQuotesLatest, map[string]string{
		"id":      joined,
		"convert": convertOrDefault(convert),
	})
	if err != nil {
		return nil, err
	}

	if err := validateEach(c.validator, "quotes", result.Data); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) ExchangeListings(ctx context.Context, limit int, convert string) (*Result[[]Exchange], error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	if err := c.checkConvert(convert); err != nil {
		return nil, err
	}

	result, err := get[[]Exchange](ctx, c, PathExchangeListings, map[string]string{
		"limit":   strconv.Itoa(limit),
		"convert": convertOrDefault(convert),
	})
	if err != nil {
		return nil, err
	}

	if err := validator.ValidateAll(c.validator, result.Data); err != nil {
		return nil, fmt.Errorf("%w: exchange listings: %w", ErrInvalidPayload, err)
	}

	return result, nil
}

func (c *Client) ExchangeInfo(ctx context.Context, ids ...int) (*Result[map[string]ExchangeInfo], error) {
	joined, err := joinIDs(ids)
	if err != nil {
		return nil, err
	}

	result, err := get[map[string]ExchangeInfo](ctx, c, PathExchangeInfo, map[string]string{"id": joined})
	if err != nil {
		return nil, err
	}

	if err := validateEach(c.validator, "exchange info", result.Data); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) ExchangeMarketPairs(ctx context.Context, id, limit int) (*Result[ExchangeMarketPairs], error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: exchange id must be positive, got %d", ErrInvalidArgument, id)
	}

	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	result, err := get[ExchangeMarketPairs](ctx, c, PathExchangeMarketPairs, map[string]string{
		"id":    strconv.Itoa(id),
		"limit": strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	if err := c.validator.Validate(result.Data); err != nil {
		return nil, fmt.Errorf("%w: market pairs: %w", ErrInvalidPayload, err)
	}

	return result, nil
}

func (c *Client) ExchangeQuotes(ctx context.Context, ids []int, convert string) (*Result[map[string]Exchange], error) {
	joined, err := joinIDs(ids)
	if err != nil {
		return nil, err
	}

	if err := c.checkConvert(convert); err != nil {
		return nil, err
	}

	result, err := get[map[string]Exchange](ctx, c, PathExchangeQuotes, map[string]string{
		"id":      joined,
		"convert": convertOrDefault(convert),
	})
	if err != nil {
		return nil, err
	}

	if err := validateEach(c.validator, "exchange quotes", result.Data); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) GlobalMetrics(ctx context.Context, convert string) (*Result[GlobalMetrics], error) {
	if err := c.checkConvert(convert); err != nil {
		return nil, err
	}

	result, err := get[GlobalMetrics](ctx, c, PathGlobalMetrics, map[string]string{
		"convert": convertOrDefault(convert),
	})
	if err != nil {
		return nil, err
	}

	if err := c.validator.Validate(result.Data); err != nil {
		return nil, fmt.Errorf("%w: global metrics: %w", ErrInvalidPayload, err)
	}

	return result, nil
}

func get[T any](ctx context.Context, c *Client, path string, query map[string]string) (*Result[T], error) {
	resp, err := c.http.Get(ctx, path, httpclient.WithQueryParams(query))
	if err != nil {
		return nil, err
	}

	var env envelope[T]
	if err := resp.JSON(&env); err != nil {
		return nil, err
	}

	if env.Status.ErrorCode != 0 {
		return nil, &APIError{
			ErrorCode:   env.Status.ErrorCode,
			Message:     env.Status.message(),
			CreditCount: env.Status.CreditCount,
		}
	}

	if env.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingData, path)
	}

	log.Debug().
		Str("path", path).
		Int("elapsed_ms", env.Status.Elapsed).
		Int("credit_count", env.Status.CreditCount).
		Dur("duration", resp.Duration).
		Msg("API call succeeded")

	return &Result[T]{
		Data:      *env.Data,
		Status:    env.Status,
		Duration:  resp.Duration,
		RequestID: resp.RequestID,
	}, nil
}
