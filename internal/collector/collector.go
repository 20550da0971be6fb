// Package collector walks the SEC company registry, finds Form 25
// delisting filings inside a date range, filters them to the target
// exchange set, and attaches a resolved market cap to each survivor.
package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"delisting-scanner/internal/edgar"
	"delisting-scanner/internal/marketcap"
	"delisting-scanner/internal/quotes"
	"delisting-scanner/internal/throttle"
)

// FilingSource provides the company registry and per-company histories.
type FilingSource interface {
	FetchRegistry(ctx context.Context) (map[string]edgar.Company, error)
	FetchSubmissions(ctx context.Context, cik string) (*edgar.Submissions, error)
}

// CapResolver runs the market-cap cascade for one event.
type CapResolver interface {
	Resolve(ctx context.Context, ticker string, refDate time.Time, state *marketcap.State, stats *marketcap.Stats) (*decimal.Decimal, string)
}

// Options tune a collection run.
type Options struct {
	TargetExchanges []string
	FetchDelay      time.Duration
	ProgressEvery   int
}

// Collector drives the collection run.
type Collector struct {
	source   FilingSource
	info     quotes.InfoFetcher
	resolver CapResolver
	logger   zerolog.Logger

	targets       map[string]struct{}
	fetchDelay    time.Duration
	progressEvery int
}

// New constructs a collector.
func New(source FilingSource, info quotes.InfoFetcher, resolver CapResolver, opts Options, logger zerolog.Logger) *Collector {
	targets := make(map[string]struct{}, len(opts.TargetExchanges))
	for _, exchange := range opts.TargetExchanges {
		targets[exchange] = struct{}{}
	}

	progressEvery := opts.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 100
	}

	return &Collector{
		source:        source,
		info:          info,
		resolver:      resolver,
		logger:        logger.With().Str("component", "collector").Logger(),
		targets:       targets,
		fetchDelay:    opts.FetchDelay,
		progressEvery: progressEvery,
	}
}

// Collect enumerates registered companies, matches delisting filings in
// [start, end] inclusive, hard-filters by exchange, and resolves market
// caps. Individual company failures are skipped; only total registry
// failure is fatal and returns an error with empty results.
func (c *Collector) Collect(ctx context.Context, start, end time.Time, threshold decimal.Decimal, state *marketcap.State) (*Result, error) {
	registry, err := c.source.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("companies", len(registry)).
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Str("max_market_cap", threshold.String()).
		Msg("collection started")

	result := &Result{Companies: len(registry)}
	cache := NewExchangeCache()
	pacer := throttle.NewPacer(c.fetchDelay)

	processed := 0
	for cik, company := range registry {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		processed++
		if processed%c.progressEvery == 0 {
			c.logger.Info().
				Int("processed", processed).
				Int("total", len(registry)).
				Int("found", len(result.All)).
				Int("small_caps", len(result.SmallCap)).
				Msg("collection progress")
		}

		subs, err := c.source.FetchSubmissions(ctx, cik)
		if err != nil {
			c.logger.Debug().Err(err).Str("cik", cik).Msg("submissions fetch failed; skipping company")
			continue
		}

		c.collectCompany(ctx, company, &subs.Filings.Recent, start, end, threshold, state, cache, result)
	}

	c.logger.Info().
		Int("found", len(result.All)).
		Int("small_caps", len(result.SmallCap)).
		Int("skipped_wrong_exchange", result.SkippedWrongExchange).
		Int("skipped_no_exchange", result.SkippedNoExchange).
		Msg("collection finished")

	return result, nil
}

func (c *Collector) collectCompany(ctx context.Context, company edgar.Company, recent *edgar.RecentFilings, start, end time.Time, threshold decimal.Decimal, state *marketcap.State, cache *ExchangeCache, result *Result) {
	for i := 0; i < recent.Len(); i++ {
		filing := recent.Entry(i)

		if !isDelistingForm(filing.Form) {
			continue
		}
		if filing.FilingDate.IsZero() || filing.FilingDate.Before(start) || filing.FilingDate.After(end) {
			continue
		}

		exchange := c.resolveExchange(ctx, company.Ticker, cache)
		if exchange == "" {
			result.SkippedNoExchange++
			continue
		}
		if _, ok := c.targets[exchange]; !ok {
			result.SkippedWrongExchange++
			c.logger.Debug().Str("ticker", company.Ticker).Str("exchange", exchange).Msg("skipping: not a target exchange")
			continue
		}

		event := FilingEvent{
			Ticker:          company.Ticker,
			CompanyName:     company.Title,
			CIK:             company.CIK,
			Exchange:        exchange,
			FormType:        filing.Form,
			FilingDate:      filing.FilingDate,
			AccessionNumber: filing.AccessionNumber,
			PrimaryDocument: filing.PrimaryDocument,
		}

		event.MarketCap, event.MarketCapSource = c.resolver.Resolve(ctx, company.Ticker, filing.FilingDate, state, &result.Stats)

		result.All = append(result.All, event)
		if event.IsSmallCap(threshold) {
			result.SmallCap = append(result.SmallCap, event)
		}
	}
}

func isDelistingForm(form string) bool {
	for _, f := range DelistingForms {
		if form == f {
			return true
		}
	}
	return false
}
