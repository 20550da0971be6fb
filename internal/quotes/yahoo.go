package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	yahooChartPath   = "/v8/finance/chart/"
	yahooSummaryPath = "/v10/finance/quoteSummary/"
	summaryModules   = "price,defaultKeyStatistics,summaryDetail"
)

// YahooOptions parameterise the Yahoo Finance fetcher.
type YahooOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Yahoo fetches price history and ticker reference data from the public
// Yahoo Finance v8 chart and v10 quoteSummary endpoints. No API key.
type Yahoo struct {
	opts    YahooOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewYahoo constructs a Yahoo Finance fetcher.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}

	return &Yahoo{
		opts:    opts,
		logger:  logger.With().Str("component", "yahoo_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchDailyCloses retrieves daily closing prices in [start, end). Days
// where Yahoo reports a null close (halts, partial sessions) are dropped.
func (y *Yahoo) FetchDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]Candle, error) {
	endpoint := fmt.Sprintf("%s%s%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, yahooChartPath, url.PathEscape(ticker), start.Unix(), end.Unix())

	var resp yahooChartResponse
	if err := y.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errors.New("yahoo chart returned no result")
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.New("yahoo chart returned no quote series")
	}

	closes := result.Indicators.Quote[0].Close
	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		candles = append(candles, Candle{
			Date:  time.Unix(ts, 0).UTC(),
			Close: decimal.NewFromFloat(*closes[i]),
		})
	}

	return candles, nil
}

// FetchInfo retrieves exchange code, market cap, and shares-outstanding
// variants from the quoteSummary endpoint.
func (y *Yahoo) FetchInfo(ctx context.Context, ticker string) (Info, error) {
	endpoint := fmt.Sprintf("%s%s%s?modules=%s",
		y.baseURL, yahooSummaryPath, url.PathEscape(ticker), summaryModules)

	var resp yahooSummaryResponse
	if err := y.getJSON(ctx, endpoint, &resp); err != nil {
		return Info{}, err
	}

	if resp.QuoteSummary.Error != nil {
		return Info{}, fmt.Errorf("yahoo quoteSummary error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return Info{}, errors.New("yahoo quoteSummary returned no result")
	}

	r := resp.QuoteSummary.Result[0]
	info := Info{}
	if r.Price != nil {
		info.Exchange = r.Price.Exchange
		info.MarketCap = decimal.NewFromFloat(r.Price.MarketCap.Raw)
	}
	if r.SummaryDetail != nil && info.MarketCap.IsZero() {
		info.MarketCap = decimal.NewFromFloat(r.SummaryDetail.MarketCap.Raw)
	}
	if r.DefaultKeyStatistics != nil {
		ks := r.DefaultKeyStatistics
		info.SharesOutstanding = decimal.NewFromFloat(ks.SharesOutstanding.Raw)
		info.ImpliedSharesOutstanding = decimal.NewFromFloat(ks.ImpliedSharesOutstanding.Raw)
		info.FloatShares = decimal.NewFromFloat(ks.FloatShares.Raw)
	}

	return info, nil
}

func (y *Yahoo) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(y.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("parse yahoo response: %w", err)
	}
	return nil
}

var _ HistoryFetcher = (*Yahoo)(nil)
var _ InfoFetcher = (*Yahoo)(nil)
