package testutil

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type coinFixture struct {
	ID                int
	Name              string
	Symbol            string
	Slug              string
	Rank              int
	Price             string
	Volume24h         string
	CirculatingSupply string
	MaxSupply         string
	Category          string
}

type exchangeFixture struct {
	ID        int
	Name      string
	Slug      string
	Volume24h string
	Score     string
	Visits    int64
}

//nolint:gochecknoglobals
var (
	fixtureTime = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

	coins = []coinFixture{
		{ID: 1, Name: "Bitcoin", Symbol: "BTC", Slug: "bitcoin", Rank: 1, Price: "97123.45", Volume24h: "45000000000", CirculatingSupply: "19800000", MaxSupply: "21000000", Category: "coin"},
		{ID: 1027, Name: "Ethereum", Symbol: "ETH", Slug: "ethereum", Rank: 2, Price: "3321.07", Volume24h: "21000000000", CirculatingSupply: "120500000", MaxSupply: "", Category: "coin"},
		{ID: 825, Name: "Tether USDt", Symbol: "USDT", Slug: "tether", Rank: 3, Price: "1.0002", Volume24h: "80000000000", CirculatingSupply: "137000000000", MaxSupply: "", Category: "token"},
		{ID: 1839, Name: "BNB", Symbol: "BNB", Slug: "bnb", Rank: 4, Price: "702.31", Volume24h: "1900000000", CirculatingSupply: "144000000", MaxSupply: "200000000", Category: "coin"},
		{ID: 5426, Name: "Solana", Symbol: "SOL", Slug: "solana", Rank: 5, Price: "187.66", Volume24h: "4100000000", CirculatingSupply: "485000000", MaxSupply: "", Category: "coin"},
	}

	exchanges = []exchangeFixture{
		{ID: 270, Name: "Binance", Slug: "binance", Volume24h: "18000000000", Score: "9.9", Visits: 25000000},
		{ID: 89, Name: "Coinbase Exchange", Slug: "coinbase-exchange", Volume24h: "3200000000", Score: "8.1", Visits: 9000000},
		{ID: 24, Name: "Kraken", Slug: "kraken", Volume24h: "1400000000", Score: "7.7", Visits: 4000000},
	}

	conversionRates = map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.92"),
		"GBP": decimal.RequireFromString("0.79"),
	}
)

// FixtureSymbols lists the symbols the fake API knows, in rank order.
func FixtureSymbols() []string {
	out := make([]string, 0, len(coins))
	for _, c := range coins {
		out = append(out, c.Symbol)
	}

	return out
}

// FixtureCoinIDs lists the coin ids the fake API knows, in rank order.
func FixtureCoinIDs() []int {
	out := make([]int, 0, len(coins))
	for _, c := range coins {
		out = append(out, c.ID)
	}

	return out
}

// FixtureExchangeIDs lists the exchange ids the fake API knows.
func FixtureExchangeIDs() []int {
	out := make([]int, 0, len(exchanges))
	for _, e := range exchanges {
		out = append(out, e.ID)
	}

	return out
}

// num renders a decimal as a bare JSON number, the way the live API sends prices.
func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func findCoinBySymbol(symbol string) (coinFixture, bool) {
	for _, c := range coins {
		if c.Symbol == symbol {
			return c, true
		}
	}

	return coinFixture{}, false //nolint:exhaustruct
}

func findCoinByID(id int) (coinFixture, bool) {
	for _, c := range coins {
		if c.ID == id {
			return c, true
		}
	}

	return coinFixture{}, false //nolint:exhaustruct
}

func findExchange(id int) (exchangeFixture, bool) {
	for _, e := range exchanges {
		if e.ID == id {
			return e, true
		}
	}

	return exchangeFixture{}, false //nolint:exhaustruct
}

func (c coinFixture) quote(rate decimal.Decimal) map[string]any {
	price := dec(c.Price).Mul(rate)
	supply := dec(c.CirculatingSupply)

	return map[string]any{
		"price":                    num(price),
		"volume_24h":               num(dec(c.Volume24h).Mul(rate)),
		"volume_change_24h":        num(dec("-3.21")),
		"percent_change_1h":        num(dec("0.12")),
		"percent_change_24h":       num(dec("-1.05")),
		"percent_change_7d":        num(dec("4.4")),
		"market_cap":               num(price.Mul(supply)),
		"market_cap_dominance":     num(dec("10.5")),
		"fully_diluted_market_cap": num(price.Mul(supply)),
		"last_updated":             fixtureTime,
	}
}

func (c coinFixture) listing(convert string) map[string]any {
	var maxSupply any
	if c.MaxSupply != "" {
		maxSupply = num(dec(c.MaxSupply))
	}

	return map[string]any{
		"id":                 c.ID,
		"name":               c.Name,
		"symbol":             c.Symbol,
		"slug":               c.Slug,
		"cmc_rank":           c.Rank,
		"num_market_pairs":   500 + c.ID%1000,
		"circulating_supply": num(dec(c.CirculatingSupply)),
		"total_supply":       num(dec(c.CirculatingSupply)),
		"max_supply":         maxSupply,
		"date_added":         fixtureTime.AddDate(-10, 0, 0),
		"tags":               []string{"mineable", c.Category},
		"platform":           nil,
		"last_updated":       fixtureTime,
		"quote":              map[string]any{convert: c.quote(conversionRates[convert])},
	}
}

func (c coinFixture) info() map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"symbol":      c.Symbol,
		"slug":        c.Slug,
		"category":    c.Category,
		"description": c.Name + " is a cryptocurrency.",
		"logo":        "https://s2.coinmarketcap.com/static/img/coins/64x64/1.png",
		"date_added":  fixtureTime.AddDate(-10, 0, 0),
		"tags":        []string{c.Category},
		"platform":    nil,
		"urls": map[string][]string{
			"website": {"https://" + c.Slug + ".org/"},
		},
	}
}

func (e exchangeFixture) quote(rate decimal.Decimal) map[string]any {
	volume := dec(e.Volume24h).Mul(rate)

	return map[string]any{
		"volume_24h":                num(volume),
		"volume_24h_adjusted":       num(volume),
		"volume_7d":                 num(volume.Mul(decimal.NewFromInt(7))),
		"volume_30d":                num(volume.Mul(decimal.NewFromInt(30))),
		"percent_change_volume_24h": num(dec("2.5")),
		"percent_change_volume_7d":  num(dec("-8.1")),
		"percent_change_volume_30d": num(dec("11.0")),
		"effective_liquidity_24h":   num(dec("812.4")),
	}
}

func (e exchangeFixture) listing(convert string) map[string]any {
	return map[string]any{
		"id":               e.ID,
		"name":             e.Name,
		"slug":             e.Slug,
		"num_market_pairs": len(coins) - 1,
		"exchange_score":   num(dec(e.Score)),
		"traffic_score":    num(dec("812.0")),
		"last_updated":     fixtureTime,
		"quote":            map[string]any{convert: e.quote(conversionRates[convert])},
	}
}

func (e exchangeFixture) info() map[string]any {
	return map[string]any{
		"id":              e.ID,
		"name":            e.Name,
		"slug":            e.Slug,
		"logo":            "https://s2.coinmarketcap.com/static/img/exchanges/64x64/270.png",
		"description":     e.Name + " is a cryptocurrency exchange.",
		"date_launched":   fixtureTime.AddDate(-7, 0, 0),
		"notice":          "",
		"countries":       []string{},
		"fiats":           []string{"USD", "EUR"},
		"type":            "",
		"maker_fee":       num(dec("0.02")),
		"taker_fee":       num(dec("0.04")),
		"weekly_visits":   e.Visits,
		"spot_volume_usd": num(dec(e.Volume24h)),
		"urls": map[string][]string{
			"website": {"https://www." + e.Slug + ".com/"},
		},
	}
}

func (e exchangeFixture) marketPairs(limit int) map[string]any {
	usdt, _ := findCoinBySymbol("USDT")
	pairs := make([]map[string]any, 0, len(coins))

	for i, c := range coins {
		if c.Symbol == usdt.Symbol {
			continue
		}

		if len(pairs) >= limit {
			break
		}

		price := dec(c.Price)

		pairs = append(pairs, map[string]any{
			"market_id":   e.ID*1000 + i,
			"market_pair": c.Symbol + "/" + usdt.Symbol,
			"category":    "spot",
			"fee_type":    "percentage",
			"market_pair_base": map[string]any{
				"currency_id":     c.ID,
				"currency_symbol": c.Symbol,
				"exchange_symbol": c.Symbol,
				"currency_type":   "cryptocurrency",
			},
			"market_pair_quote": map[string]any{
				"currency_id":     usdt.ID,
				"currency_symbol": usdt.Symbol,
				"exchange_symbol": usdt.Symbol,
				"currency_type":   "cryptocurrency",
			},
			"quote": map[string]any{
				"exchange_reported": map[string]any{
					"price":            num(price),
					"volume_24h_base":  num(dec("1200.5")),
					"volume_24h_quote": num(price.Mul(dec("1200.5"))),
					"last_updated":     fixtureTime,
				},
				"USD": map[string]any{
					"price":              num(price),
					"volume_24h":         num(price.Mul(dec("1200.5"))),
					"depth_negative_two": num(dec("1500000")),
					"depth_positive_two": num(dec("1400000")),
					"last_updated":       fixtureTime,
				},
			},
		})
	}

	return map[string]any{
		"id":               e.ID,
		"name":             e.Name,
		"slug":             e.Slug,
		"num_market_pairs": len(coins) - 1,
		"market_pairs":     pairs,
	}
}

func globalMetrics(convert string) map[string]any {
	rate := conversionRates[convert]
	total := dec("3400000000000").Mul(rate)
	volume := dec("120000000000").Mul(rate)

	return map[string]any{
		"active_cryptocurrencies": 10250,
		"total_cryptocurrencies":  32000,
		"active_market_pairs":     98000,
		"active_exchanges":        780,
		"total_exchanges":         9500,
		"btc_dominance":           num(dec("56.7")),
		"eth_dominance":           num(dec("11.8")),
		"last_updated":            fixtureTime,
		"quote": map[string]any{
			convert: map[string]any{
				"total_market_cap":          num(total),
				"total_volume_24h":          num(volume),
				"total_volume_24h_reported": num(volume),
				"altcoin_market_cap":        num(total.Mul(dec("0.433"))),
				"altcoin_volume_24h":        num(volume.Mul(dec("0.6"))),
				"defi_market_cap":           num(dec("120000000000").Mul(rate)),
				"stablecoin_market_cap":     num(dec("210000000000").Mul(rate)),
				"total_market_cap_yesterday_percentage_change": num(dec("-0.8")),
				"last_updated": fixtureTime,
			},
		},
	}
}
