// Package edgar accesses the SEC EDGAR JSON APIs: the company ticker
// registry and per-company filing submissions. No API key is required,
// but the SEC mandates an identifying User-Agent and roughly ten
// requests per second.
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const submissionsPath = "/submissions/CIK%s.json"

// ErrRegistryUnavailable indicates every configured registry endpoint
// failed. Collection cannot proceed without the registry.
var ErrRegistryUnavailable = errors.New("edgar: company registry unavailable from all endpoints")

// Options parameterise the EDGAR client.
type Options struct {
	BaseURL      string
	RegistryURLs []string
	UserAgent    string
	Timeout      time.Duration
}

// Client talks to SEC EDGAR.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// Company is one registry entry: an SEC registrant with a listed ticker.
type Company struct {
	CIK    string
	Ticker string
	Title  string
}

// NewClient constructs an EDGAR client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://data.sec.gov"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "edgar_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchRegistry loads the CIK-to-ticker mapping. The configured endpoints
// are tried in order; the first returning HTTP 200 with parseable JSON
// wins. All failing is fatal for a collection run.
func (c *Client) FetchRegistry(ctx context.Context) (map[string]Company, error) {
	for _, endpoint := range c.opts.RegistryURLs {
		entries, err := c.fetchRegistryFrom(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debug().Err(err).Str("url", endpoint).Msg("registry endpoint failed")
			continue
		}
		c.logger.Info().Str("url", endpoint).Int("companies", len(entries)).Msg("company registry loaded")
		return entries, nil
	}
	return nil, ErrRegistryUnavailable
}

func (c *Client) fetchRegistryFrom(ctx context.Context, endpoint string) (map[string]Company, error) {
	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw map[string]registryEntry
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse registry json: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("registry json contained no entries")
	}

	entries := make(map[string]Company, len(raw))
	for _, item := range raw {
		cik := PadCIK(item.CIK.String())
		entries[cik] = Company{
			CIK:    cik,
			Ticker: item.Ticker,
			Title:  item.Title,
		}
	}
	return entries, nil
}

// FetchSubmissions retrieves the filing history for one CIK.
func (c *Client) FetchSubmissions(ctx context.Context, cik string) (*Submissions, error) {
	endpoint := c.baseURL + fmt.Sprintf(submissionsPath, PadCIK(cik))

	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var subs Submissions
	if err := json.Unmarshal(payload, &subs); err != nil {
		return nil, fmt.Errorf("parse submissions json: %w", err)
	}
	return &subs, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edgar http %d from %s", resp.StatusCode, endpoint)
	}
	return payload, nil
}

// PadCIK left-pads a CIK to the canonical 10-digit form.
func PadCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}
