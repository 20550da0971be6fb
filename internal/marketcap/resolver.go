// Package marketcap resolves a best-effort market capitalisation for a
// ticker around a reference date, using a fixed-priority cascade of free
// data sources. Resolution never fails outward: every internal error
// degrades to trying the next strategy, and exhausting the cascade
// yields a "none" result.
package marketcap

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"delisting-scanner/internal/quotes"
)

// Strategy identifiers, in cascade order. SourceNone records exhaustion.
const (
	SourceYahooHistorical = "yahoo_historical"
	SourceFMP             = "fmp_api"
	SourceCalculated      = "calculated"
	SourceYahooCurrent    = "yahoo_current"
	SourceNone            = "none"
)

const (
	historicalWindow = 60 * 24 * time.Hour
	calculatedWindow = 90 * 24 * time.Hour
	postEventMargin  = 24 * time.Hour
)

// Sanity bounds rejecting data errors: a computed cap below $1k or at or
// above $1T is treated as missing, not as an error.
var (
	minSaneCap = decimal.NewFromInt(1_000)
	maxSaneCap = decimal.NewFromInt(1_000_000_000_000)
)

// State threads resolver run state through each call instead of hiding
// it in resolver fields, keeping the cascade logic testable.
type State struct {
	// SecondaryEnabled gates the FMP strategy. Cleared permanently for
	// the run on auth failure (401) or rate-limit exhaustion (429).
	SecondaryEnabled bool
}

// Resolver runs the market-cap cascade against the configured sources.
type Resolver struct {
	history quotes.HistoryFetcher
	info    quotes.InfoFetcher
	quote   quotes.QuoteFetcher
	logger  zerolog.Logger
}

// New constructs a resolver. quote may be nil when no secondary API key
// was supplied.
func New(history quotes.HistoryFetcher, info quotes.InfoFetcher, quote quotes.QuoteFetcher, logger zerolog.Logger) *Resolver {
	return &Resolver{
		history: history,
		info:    info,
		quote:   quote,
		logger:  logger.With().Str("component", "marketcap_resolver").Logger(),
	}
}

// NewRunState validates the secondary API once and returns the initial
// resolver state for a run. Any outcome other than a quote with a
// positive market cap leaves the secondary strategy disabled.
func (r *Resolver) NewRunState(ctx context.Context) *State {
	state := &State{}
	if r.quote == nil {
		r.logger.Warn().Msg("no fmp api key configured; secondary quote strategy disabled")
		return state
	}

	q, err := r.quote.FetchQuote(ctx, "AAPL")
	if err != nil {
		var statusErr *quotes.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.Status {
			case 401:
				r.logger.Error().Msg("fmp api key validation failed: invalid key (401)")
			case 403:
				r.logger.Error().Msg("fmp api key validation failed: access forbidden (403), likely a free-tier restriction")
			case 429:
				r.logger.Error().Msg("fmp api key validation failed: rate limit exceeded (429)")
			default:
				r.logger.Error().Int("status", statusErr.Status).Msg("fmp api key validation failed")
			}
		} else {
			r.logger.Error().Err(err).Msg("fmp api key validation failed")
		}
		return state
	}

	if !q.MarketCap.IsPositive() {
		r.logger.Error().Msg("fmp api key validation failed: quote carried no market cap")
		return state
	}

	r.logger.Info().Msg("fmp api key validated; secondary quote strategy enabled")
	state.SecondaryEnabled = true
	return state
}

// Resolve attempts each strategy in fixed priority order and returns the
// first accepted value with its source. Exactly one stats counter (a
// strategy counter or Failed) is incremented per call.
func (r *Resolver) Resolve(ctx context.Context, ticker string, refDate time.Time, state *State, stats *Stats) (*decimal.Decimal, string) {
	stats.Total++

	if mc := r.yahooHistorical(ctx, ticker, refDate); mc != nil {
		stats.YahooHistorical++
		return mc, SourceYahooHistorical
	}

	if state.SecondaryEnabled {
		if mc := r.secondaryQuote(ctx, ticker, state); mc != nil {
			stats.FMP++
			return mc, SourceFMP
		}
	}

	if mc := r.calculated(ctx, ticker, refDate); mc != nil {
		stats.Calculated++
		return mc, SourceCalculated
	}

	if mc := r.yahooCurrent(ctx, ticker); mc != nil {
		stats.YahooCurrent++
		return mc, SourceYahooCurrent
	}

	stats.Failed++
	r.logger.Debug().Str("ticker", ticker).Msg("no market cap available from any source")
	return nil, SourceNone
}

// yahooHistorical prices the ticker from a 60-day pre-event window and
// current shares outstanding. Best strategy for recently delisted stocks.
func (r *Resolver) yahooHistorical(ctx context.Context, ticker string, refDate time.Time) *decimal.Decimal {
	closePrice, ok := r.latestClose(ctx, ticker, refDate, historicalWindow)
	if !ok {
		return nil
	}

	info, err := r.info.FetchInfo(ctx, ticker)
	if err != nil {
		r.logger.Debug().Err(err).Str("ticker", ticker).Msg("yahoo historical: info fetch failed")
		return nil
	}

	return computeCap(closePrice, info.SharesOutstanding)
}

// secondaryQuote queries FMP for a live market cap. Only works for
// tickers still trading; 401 and 429 disable the strategy for the rest
// of the run, 403 is a per-ticker miss.
func (r *Resolver) secondaryQuote(ctx context.Context, ticker string, state *State) *decimal.Decimal {
	q, err := r.quote.FetchQuote(ctx, ticker)
	if err != nil {
		var statusErr *quotes.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.Status {
			case 401:
				r.logger.Warn().Msg("fmp authentication failed; disabling secondary strategy for this run")
				state.SecondaryEnabled = false
			case 429:
				r.logger.Warn().Msg("fmp rate limit hit; disabling secondary strategy for this run")
				state.SecondaryEnabled = false
			case 403:
				r.logger.Debug().Str("ticker", ticker).Msg("fmp free tier rejected endpoint")
			default:
				r.logger.Debug().Int("status", statusErr.Status).Str("ticker", ticker).Msg("fmp quote failed")
			}
			return nil
		}
		r.logger.Debug().Err(err).Str("ticker", ticker).Msg("fmp quote failed")
		return nil
	}

	if q.MarketCap.IsPositive() {
		mc := q.MarketCap
		return &mc
	}
	return nil
}

// calculated repeats the price-times-shares computation with a wider
// 90-day window and a fallback chain of shares fields.
func (r *Resolver) calculated(ctx context.Context, ticker string, refDate time.Time) *decimal.Decimal {
	closePrice, ok := r.latestClose(ctx, ticker, refDate, calculatedWindow)
	if !ok {
		return nil
	}

	info, err := r.info.FetchInfo(ctx, ticker)
	if err != nil {
		r.logger.Debug().Err(err).Str("ticker", ticker).Msg("calculated: info fetch failed")
		return nil
	}

	shares := info.SharesOutstanding
	if !shares.IsPositive() {
		shares = info.ImpliedSharesOutstanding
	}
	if !shares.IsPositive() {
		shares = info.FloatShares
	}

	return computeCap(closePrice, shares)
}

// yahooCurrent reads the live market cap field. Almost always misses for
// delisted tickers but costs one call to rule out.
func (r *Resolver) yahooCurrent(ctx context.Context, ticker string) *decimal.Decimal {
	info, err := r.info.FetchInfo(ctx, ticker)
	if err != nil {
		r.logger.Debug().Err(err).Str("ticker", ticker).Msg("yahoo current: info fetch failed")
		return nil
	}

	if info.MarketCap.IsPositive() {
		mc := info.MarketCap
		return &mc
	}
	return nil
}

// latestClose returns the most recent positive close within
// [refDate-window, refDate+1d].
func (r *Resolver) latestClose(ctx context.Context, ticker string, refDate time.Time, window time.Duration) (decimal.Decimal, bool) {
	start := refDate.Add(-window)
	end := refDate.Add(postEventMargin)

	candles, err := r.history.FetchDailyCloses(ctx, ticker, start, end)
	if err != nil {
		r.logger.Debug().Err(err).Str("ticker", ticker).Msg("price history fetch failed")
		return decimal.Decimal{}, false
	}
	if len(candles) == 0 {
		return decimal.Decimal{}, false
	}

	closePrice := candles[len(candles)-1].Close
	if !closePrice.IsPositive() {
		return decimal.Decimal{}, false
	}
	return closePrice, true
}

func computeCap(closePrice, shares decimal.Decimal) *decimal.Decimal {
	if !shares.IsPositive() || !closePrice.IsPositive() {
		return nil
	}

	mc := closePrice.Mul(shares)
	if !withinSaneBounds(mc) {
		return nil
	}
	return &mc
}

// withinSaneBounds accepts caps in [$1k, $1T). The lower bound is
// inclusive, the upper exclusive.
func withinSaneBounds(mc decimal.Decimal) bool {
	return mc.GreaterThanOrEqual(minSaneCap) && mc.LessThan(maxSaneCap)
}
