package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one daily close observation.
type Candle struct {
	Date  time.Time
	Close decimal.Decimal
}

// Info aggregates the per-ticker reference fields used for market-cap
// computation and exchange resolution. Absent fields are zero.
type Info struct {
	Exchange                 string
	MarketCap                decimal.Decimal
	SharesOutstanding        decimal.Decimal
	ImpliedSharesOutstanding decimal.Decimal
	FloatShares              decimal.Decimal
}

// Quote is a live quote from the secondary provider.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	MarketCap decimal.Decimal
}

// HistoryFetcher retrieves daily closing prices over a date range.
type HistoryFetcher interface {
	FetchDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]Candle, error)
}

// InfoFetcher retrieves per-ticker reference data.
type InfoFetcher interface {
	FetchInfo(ctx context.Context, ticker string) (Info, error)
}

// QuoteFetcher retrieves a live quote from the secondary provider.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, ticker string) (Quote, error)
}

// StatusError reports a non-200 HTTP response where the caller needs to
// branch on the status code (FMP distinguishes 401/403/429).
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("quote api error (%d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("quote api error (%d)", e.Status)
}
