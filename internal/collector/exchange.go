package collector

import (
	"context"
	"strings"
)

// exchangeByCode maps Yahoo Finance exchange codes to exchange names.
var exchangeByCode = map[string]string{
	"NYQ":    ExchangeNYSE,
	"NYSE":   ExchangeNYSE,
	"NYE":    ExchangeNYSE,
	"NMS":    ExchangeNASDAQ,
	"NASDAQ": ExchangeNASDAQ,
	"NGM":    ExchangeNASDAQ,
	"NAS":    ExchangeNASDAQ,
	"ASE":    ExchangeAMEX,
	"AMEX":   ExchangeAMEX,
	"PCX":    ExchangeNYSEArca,
}

// ExchangeCache maps ticker to resolved exchange name for the duration
// of one run. Write-once per ticker: the first resolution wins, and
// misses are cached as "" so unresolvable tickers cost one lookup only.
type ExchangeCache struct {
	entries map[string]string
}

// NewExchangeCache constructs an empty cache.
func NewExchangeCache() *ExchangeCache {
	return &ExchangeCache{entries: make(map[string]string)}
}

// Get returns the cached exchange ("" for a cached miss) and whether the
// ticker has been resolved before.
func (c *ExchangeCache) Get(ticker string) (string, bool) {
	exchange, ok := c.entries[ticker]
	return exchange, ok
}

// Put records a resolution. Later writes for the same ticker are ignored.
func (c *ExchangeCache) Put(ticker, exchange string) {
	if _, ok := c.entries[ticker]; ok {
		return
	}
	c.entries[ticker] = exchange
}

// resolveExchange returns the exchange name for a ticker, or "" when it
// cannot be determined. Filings with an unknown exchange are excluded
// from results entirely; that undercounts, but matches the conservative
// upstream behaviour.
func (c *Collector) resolveExchange(ctx context.Context, ticker string, cache *ExchangeCache) string {
	if exchange, ok := cache.Get(ticker); ok {
		return exchange
	}

	info, err := c.info.FetchInfo(ctx, ticker)
	if err != nil {
		c.logger.Debug().Err(err).Str("ticker", ticker).Msg("could not determine exchange")
		cache.Put(ticker, "")
		return ""
	}

	exchange := exchangeByCode[strings.ToUpper(strings.TrimSpace(info.Exchange))]
	cache.Put(ticker, exchange)
	return exchange
}
