//nolint:tagliatelle
package cmcapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status struct {
	Timestamp    time.Time `json:"timestamp"`
	ErrorCode    int       `json:"error_code"`
	ErrorMessage *string   `json:"error_message"`
	Elapsed      int       `json:"elapsed"      validate:"gte=0"`
	CreditCount  int       `json:"credit_count" validate:"gte=0"`
	Notice       *string   `json:"notice"`
}

func (s Status) message() string {
	if s.ErrorMessage == nil {
		return ""
	}

	return *s.ErrorMessage
}

type envelope[T any] struct {
	Status Status `json:"status"`
	Data   *T     `json:"data"`
}

// Result is a decoded response together with its transport metadata.
type Result[T any] struct {
	Data      T
	Status    Status
	Duration  time.Duration
	RequestID string
}

type Quote struct {
	Price                 decimal.Decimal `json:"price"                    validate:"gte=0"`
	Volume24h             decimal.Decimal `json:"volume_24h"               validate:"gte=0"`
	VolumeChange24h       decimal.Decimal `json:"volume_change_24h"`
	PercentChange1h       decimal.Decimal `json:"percent_change_1h"`
	PercentChange24h      decimal.Decimal `json:"percent_change_24h"`
	PercentChange7d       decimal.Decimal `json:"percent_change_7d"`
	MarketCap             decimal.Decimal `json:"market_cap"               validate:"gte=0"`
	MarketCapDominance    decimal.Decimal `json:"market_cap_dominance"     validate:"gte=0,lte=100"`
	FullyDilutedMarketCap decimal.Decimal `json:"fully_diluted_market_cap" validate:"gte=0"`
	LastUpdated           time.Time       `json:"last_updated"`
}

type Cryptocurrency struct {
	ID                int                `json:"id"                 validate:"gt=0"`
	Name              string             `json:"name"               validate:"required"`
	Symbol            string             `json:"symbol"             validate:"required"`
	Slug              string             `json:"slug"               validate:"required"`
	CMCRank           int                `json:"cmc_rank"           validate:"gte=0"`
	NumMarketPairs    int                `json:"num_market_pairs"   validate:"gte=0"`
	CirculatingSupply decimal.Decimal    `json:"circulating_supply" validate:"gte=0"`
	TotalSupply       decimal.Decimal    `json:"total_supply"       validate:"gte=0"`
	MaxSupply         decimal.NullDecimal `json:"max_supply"`
	DateAdded         time.Time          `json:"date_added"`
	Tags              []string           `json:"tags"`
	Platform          *Platform          `json:"platform"`
	LastUpdated       time.Time          `json:"last_updated"`
	Quote             map[string]Quote   `json:"quote"              validate:"required,dive"`
}

type Platform struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Slug         string `json:"slug"`
	TokenAddress string `json:"token_address"`
}

type CoinInfo struct {
	ID          int                 `json:"id"          validate:"gt=0"`
	Name        string              `json:"name"        validate:"required"`
	Symbol      string              `json:"symbol"      validate:"required"`
	Slug        string              `json:"slug"        validate:"required"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Logo        string              `json:"logo"        validate:"omitempty,url"`
	DateAdded   time.Time           `json:"date_added"`
	Tags        []string            `json:"tags"`
	Platform    *Platform           `json:"platform"`
	URLs        map[string][]string `json:"urls"`
}

type ExchangeQuote struct {
	Volume24h              decimal.Decimal `json:"volume_24h"                validate:"gte=0"`
	Volume24hAdjusted      decimal.Decimal `json:"volume_24h_adjusted"       validate:"gte=0"`
	Volume7d               decimal.Decimal `json:"volume_7d"                 validate:"gte=0"`
	Volume30d              decimal.Decimal `json:"volume_30d"                validate:"gte=0"`
	PercentChangeVolume24h decimal.Decimal `json:"percent_change_volume_24h"`
	PercentChangeVolume7d  decimal.Decimal `json:"percent_change_volume_7d"`
	PercentChangeVolume30d decimal.Decimal `json:"percent_change_volume_30d"`
	EffectiveLiquidity24h  decimal.Decimal `json:"effective_liquidity_24h"`
}

type Exchange struct {
	ID             int                      `json:"id"               validate:"gt=0"`
	Name           string                   `json:"name"             validate:"required"`
	Slug           string                   `json:"slug"             validate:"required"`
	NumMarketPairs int                      `json:"num_market_pairs" validate:"gte=0"`
	ExchangeScore  decimal.NullDecimal      `json:"exchange_score"`
	TrafficScore   decimal.NullDecimal      `json:"traffic_score"`
	LastUpdated    time.Time                `json:"last_updated"`
	Quote          map[string]ExchangeQuote `json:"quote"            validate:"dive"`
}

type ExchangeInfo struct {
	ID            int                 `json:"id"              validate:"gt=0"`
	Name          string              `json:"name"            validate:"required"`
	Slug          string              `json:"slug"            validate:"required"`
	Logo          string              `json:"logo"            validate:"omitempty,url"`
	Description   string              `json:"description"`
	DateLaunched  *time.Time          `json:"date_launched"`
	Notice        string              `json:"notice"`
	Countries     []string            `json:"countries"`
	Fiats         []string            `json:"fiats"`
	Type          string              `json:"type"`
	MakerFee      decimal.Decimal     `json:"maker_fee"`
	TakerFee      decimal.Decimal     `json:"taker_fee"`
	WeeklyVisits  int64               `json:"weekly_visits"   validate:"gte=0"`
	SpotVolumeUSD decimal.Decimal     `json:"spot_volume_usd" validate:"gte=0"`
	URLs          map[string][]string `json:"urls"`
}

type MarketPairCurrency struct {
	CurrencyID     int    `json:"currency_id"     validate:"gt=0"`
	CurrencySymbol string `json:"currency_symbol" validate:"required"`
	ExchangeSymbol string `json:"exchange_symbol"`
	CurrencyType   string `json:"currency_type"`
}

type ExchangeReportedQuote struct {
	Price          decimal.Decimal `json:"price"            validate:"gte=0"`
	Volume24hBase  decimal.Decimal `json:"volume_24h_base"  validate:"gte=0"`
	Volume24hQuote decimal.Decimal `json:"volume_24h_quote" validate:"gte=0"`
	LastUpdated    time.Time       `json:"last_updated"`
}

type MarketPairQuote struct {
	Price       decimal.Decimal `json:"price"        validate:"gte=0"`
	Volume24h   decimal.Decimal `json:"volume_24h"   validate:"gte=0"`
	DepthNeg2   decimal.Decimal `json:"depth_negative_two"`
	DepthPos2   decimal.Decimal `json:"depth_positive_two"`
	LastUpdated time.Time       `json:"last_updated"`
}

// MarketPairQuotes holds the exchange-reported quote and the converted quotes,
// which share one JSON object keyed by "exchange_reported" and currency codes.
type MarketPairQuotes struct {
	ExchangeReported ExchangeReportedQuote      `json:"exchange_reported"`
	Converted        map[string]MarketPairQuote `json:"-"                 validate:"dive"`
}

func (q *MarketPairQuotes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	q.Converted = make(map[string]MarketPairQuote, len(raw))

	for key, value := range raw {
		if key == "exchange_reported" {
			if err := json.Unmarshal(value, &q.ExchangeReported); err != nil {
				return fmt.Errorf("exchange_reported: %w", err)
			}

			continue
		}

		var quote MarketPairQuote
		if err := json.Unmarshal(value, &quote); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		q.Converted[key] = quote
	}

	return nil
}

type MarketPair struct {
	MarketID        int                `json:"market_id"`
	MarketPair      string             `json:"market_pair"       validate:"required"`
	Category        string             `json:"category"`
	FeeType         string             `json:"fee_type"`
	MarketPairBase  MarketPairCurrency `json:"market_pair_base"`
	MarketPairQuote MarketPairCurrency `json:"market_pair_quote"`
	Quote           MarketPairQuotes   `json:"quote"`
}

type ExchangeMarketPairs struct {
	ID             int          `json:"id"               validate:"gt=0"`
	Name           string       `json:"name"             validate:"required"`
	Slug           string       `json:"slug"             validate:"required"`
	NumMarketPairs int          `json:"num_market_pairs" validate:"gte=0"`
	MarketPairs    []MarketPair `json:"market_pairs"     validate:"dive"`
}

type GlobalQuote struct {
	TotalMarketCap           decimal.Decimal `json:"total_market_cap"                            validate:"gte=0"`
	TotalVolume24h           decimal.Decimal `json:"total_volume_24h"                            validate:"gte=0"`
	TotalVolume24hReported   decimal.Decimal `json:"total_volume_24h_reported"                   validate:"gte=0"`
	AltcoinMarketCap         decimal.Decimal `json:"altcoin_market_cap"                          validate:"gte=0"`
	AltcoinVolume24h         decimal.Decimal `json:"altcoin_volume_24h"                          validate:"gte=0"`
	DefiMarketCap            decimal.Decimal `json:"defi_market_cap"                             validate:"gte=0"`
	StablecoinMarketCap      decimal.Decimal `json:"stablecoin_market_cap"                       validate:"gte=0"`
	TotalMarketCapChange24hP decimal.Decimal `json:"total_market_cap_yesterday_percentage_change"`
	LastUpdated              time.Time       `json:"last_updated"`
}

type GlobalMetrics struct {
	ActiveCryptocurrencies int                    `json:"active_cryptocurrencies" validate:"gte=0"`
	TotalCryptocurrencies  int                    `json:"total_cryptocurrencies"  validate:"gte=0"`
	ActiveMarketPairs      int                    `json:"active_market_pairs"     validate:"gte=0"`
	ActiveExchanges        int                    `json:"active_exchanges"        validate:"gte=0"`
	TotalExchanges         int                    `json:"total_exchanges"         validate:"gte=0"`
	BTCDominance           decimal.Decimal        `json:"btc_dominance"           validate:"gte=0,lte=100"`
	ETHDominance           decimal.Decimal        `json:"eth_dominance"           validate:"gte=0,lte=100"`
	LastUpdated            time.Time              `json:"last_updated"`
	Quote                  map[string]GlobalQuote `json:"quote"                   validate:"required,dive"`
}
