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

// FMPOptions parameterise the Financial Modeling Prep fetcher.
type FMPOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FMP fetches live quotes from the Financial Modeling Prep v3 API.
// The free tier carries 250 calls per day and no historical market cap,
// so for delisted tickers this source mostly misses.
type FMP struct {
	opts    FMPOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewFMP constructs an FMP fetcher.
func NewFMP(opts FMPOptions, logger zerolog.Logger) *FMP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}

	return &FMP{
		opts:    opts,
		logger:  logger.With().Str("component", "fmp_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchQuote issues a live quote request. Non-200 responses surface as
// *StatusError so the caller can distinguish auth, tier, and rate-limit
// failures by status code.
func (f *FMP) FetchQuote(ctx context.Context, ticker string) (Quote, error) {
	if f.opts.APIKey == "" {
		return Quote{}, errors.New("fmp api key not configured")
	}

	endpoint := fmt.Sprintf("%s/quote/%s?apikey=%s",
		f.baseURL, url.PathEscape(ticker), url.QueryEscape(f.opts.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Quote{}, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var results []fmpQuote
	if err := json.Unmarshal(payload, &results); err != nil {
		// FMP reports some errors as a JSON object with 200 status.
		var apiErr struct {
			ErrorMessage string `json:"Error Message"`
		}
		if jsonErr := json.Unmarshal(payload, &apiErr); jsonErr == nil && apiErr.ErrorMessage != "" {
			return Quote{}, fmt.Errorf("fmp api error: %s", apiErr.ErrorMessage)
		}
		return Quote{}, fmt.Errorf("parse fmp response: %w", err)
	}
	if len(results) == 0 {
		return Quote{}, fmt.Errorf("no fmp quote for %s", ticker)
	}

	r := results[0]
	return Quote{
		Symbol:    r.Symbol,
		Price:     decimal.NewFromFloat(r.Price),
		MarketCap: decimal.NewFromFloat(r.MarketCap),
	}, nil
}

var _ QuoteFetcher = (*FMP)(nil)
