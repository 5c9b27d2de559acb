package monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andyle182810/cryptoqa/cmcapi"
	"github.com/andyle182810/cryptoqa/config"
	"github.com/shopspring/decimal"
)

const (
	CheckListings            = "listings_latest"
	CheckCryptocurrencyInfo  = "cryptocurrency_info"
	CheckQuotes              = "quotes_latest"
	CheckExchangeListings    = "exchange_listings"
	CheckExchangeInfo        = "exchange_info"
	CheckExchangeMarketPairs = "exchange_market_pairs"
	CheckExchangeQuotes      = "exchange_quotes"
	CheckGlobalMetrics       = "global_metrics"
)

//nolint:gochecknoglobals
var hundred = decimal.NewFromInt(100)

// DefaultChecks builds one check per market-data endpoint from the monitor settings.
func DefaultChecks(cfg config.MonitorConfig) []Check {
	checks := []Check{
		{Name: CheckListings, Run: listingsCheck(cfg.ListingLimit, cfg.Convert)},
		{Name: CheckCryptocurrencyInfo, Run: infoCheck(cfg.Symbols)},
		{Name: CheckQuotes, Run: quotesCheck(cfg.CoinIDs, cfg.Convert)},
		{Name: CheckExchangeListings, Run: exchangeListingsCheck(cfg.ListingLimit, cfg.Convert)},
	}

	// market pairs are fetched for the first configured exchange only
	if len(cfg.ExchangeIDs) > 0 {
		checks = append(checks,
			Check{Name: CheckExchangeInfo, Run: exchangeInfoCheck(cfg.ExchangeIDs)},
			Check{Name: CheckExchangeMarketPairs, Run: marketPairsCheck(cfg.ExchangeIDs[0], cfg.MarketPairLimit)},
			Check{Name: CheckExchangeQuotes, Run: exchangeQuotesCheck(cfg.ExchangeIDs, cfg.Convert)},
		)
	}

	return append(checks, Check{Name: CheckGlobalMetrics, Run: globalMetricsCheck(cfg.Convert)})
}

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAssertion, fmt.Sprintf(format, args...))
}

func listingsCheck(limit int, convert string) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.ListingsLatest(ctx, cmcapi.ListingsParams{Start: 1, Limit: limit, Convert: convert})
		if err != nil {
			return err
		}

		coins := result.Data

		switch {
		case len(coins) == 0:
			return failf("listings returned no coins")
		case len(coins) > limit:
			return failf("listings returned %d coins, limit was %d", len(coins), limit)
		}

		prevRank := 0

		for _, coin := range coins {
			if coin.CMCRank <= prevRank {
				return failf("%s has rank %d after rank %d", coin.Symbol, coin.CMCRank, prevRank)
			}

			prevRank = coin.CMCRank

			quote, ok := coin.Quote[convert]
			if !ok {
				return failf("%s has no %s quote", coin.Symbol, convert)
			}

			if !quote.Price.IsPositive() {
				return failf("%s has non-positive %s price %s", coin.Symbol, convert, quote.Price)
			}
		}

		return nil
	}
}

func infoCheck(symbols []string) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.CryptocurrencyInfo(ctx, symbols...)
		if err != nil {
			return err
		}

		for _, symbol := range symbols {
			symbol = strings.ToUpper(symbol)

			infos := result.Data[symbol]
			if len(infos) == 0 {
				return failf("no info for %s", symbol)
			}

			if infos[0].Symbol != symbol {
				return failf("info for %s carries symbol %s", symbol, infos[0].Symbol)
			}
		}

		return nil
	}
}

func quotesCheck(ids []int, convert string) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.QuotesLatest(ctx, ids, convert)
		if err != nil {
			return err
		}

		for _, id := range ids {
			coin, ok := result.Data[strconv.Itoa(id)]
			if !ok {
				return failf("no quote for coin %d", id)
			}

			if coin.ID != id {
				return failf("quote keyed %d carries id %d", id, coin.ID)
			}

			quote, ok := coin.Quote[convert]
			if !ok || !quote.Price.IsPositive() {
				return failf("coin %d has no positive %s price", id, convert)
			}
		}

		return nil
	}
}

func exchangeListingsCheck(limit int, convert string) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.ExchangeListings(ctx, limit, convert)
		if err != nil {
			return err
		}

		switch {
		case len(result.Data) == 0:
			return failf("exchange listings returned no exchanges")
		case len(result.Data) > limit:
			return failf("exchange listings returned %d exchanges, limit was %d", len(result.Data), limit)
		}

		for _, exchange := range result.Data {
			if _, ok := exchange.Quote[convert]; !ok {
				return failf("exchange %s has no %s quote", exchange.Slug, convert)
			}
		}

		return nil
	}
}

func exchangeInfoCheck(ids []int) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.ExchangeInfo(ctx, ids...)
		if err != nil {
			return err
		}

		for _, id := range ids {
			info, ok := result.Data[strconv.Itoa(id)]
			if !ok {
				return failf("no info for exchange %d", id)
			}

			if info.ID != id {
				return failf("exchange info keyed %d carries id %d", id, info.ID)
			}
		}

		return nil
	}
}

func marketPairsCheck(id, limit int) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.ExchangeMarketPairs(ctx, id, limit)
		if err != nil {
			return err
		}

		pairs := result.Data.MarketPairs

		if result.Data.ID != id {
			return failf("market pairs for exchange %d carry id %d", id, result.Data.ID)
		}

		if len(pairs) > limit {
			return failf("exchange %d returned %d market pairs, limit was %d", id, len(pairs), limit)
		}

		for _, pair := range pairs {
			want := pair.MarketPairBase.CurrencySymbol + "/" + pair.MarketPairQuote.CurrencySymbol
			if pair.MarketPair != want {
				return failf("market pair %s does not match %s", pair.MarketPair, want)
			}
		}

		return nil
	}
}

func exchangeQuotesCheck(ids []int, convert string) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.ExchangeQuotes(ctx, ids, convert)
		if err != nil {
			return err
		}

		for _, id := range ids {
			exchange, ok := result.Data[strconv.Itoa(id)]
			if !ok {
				return failf("no quote for exchange %d", id)
			}

			if _, ok := exchange.Quote[convert]; !ok {
				return failf("exchange %d has no %s quote", id, convert)
			}
		}

		return nil
	}
}

func globalMetricsCheck(convert string) func(context.Context, *cmcapi.Client) error {
	return func(ctx context.Context, client *cmcapi.Client) error {
		result, err := client.GlobalMetrics(ctx, convert)
		if err != nil {
			return err
		}

		global := result.Data

		if global.ActiveCryptocurrencies > global.TotalCryptocurrencies {
			return failf("active cryptocurrencies %d exceed total %d",
				global.ActiveCryptocurrencies, global.TotalCryptocurrencies)
		}

		if global.ActiveExchanges > global.TotalExchanges {
			return failf("active exchanges %d exceed total %d", global.ActiveExchanges, global.TotalExchanges)
		}

		if global.BTCDominance.Add(global.ETHDominance).GreaterThan(hundred) {
			return failf("btc and eth dominance sum past 100: %s + %s", global.BTCDominance, global.ETHDominance)
		}

		quote, ok := global.Quote[convert]
		if !ok {
			return failf("global metrics have no %s quote", convert)
		}

		if !quote.TotalMarketCap.IsPositive() {
			return failf("total market cap is %s", quote.TotalMarketCap)
		}

		return nil
	}
}
