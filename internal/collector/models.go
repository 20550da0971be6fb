package collector

import (
	"time"

	"github.com/shopspring/decimal"

	"delisting-scanner/internal/marketcap"
)

// Exchange names used after mapping Yahoo exchange codes.
const (
	ExchangeNYSE     = "NYSE"
	ExchangeNASDAQ   = "NASDAQ"
	ExchangeAMEX     = "AMEX"
	ExchangeNYSEArca = "NYSE ARCA"
)

// Delisting form codes recognised in a company's filing history.
var DelistingForms = []string{"25", "25-NSE"}

// FilingEvent is one delisting record: a Form 25 filing matched within
// the scan window on a target exchange. Immutable once constructed,
// except MarketCap and MarketCapSource which are set exactly once after
// resolution.
type FilingEvent struct {
	Ticker          string
	CompanyName     string
	CIK             string
	Exchange        string
	FormType        string
	FilingDate      time.Time
	AccessionNumber string
	PrimaryDocument string

	// MarketCap is nil iff MarketCapSource is "none".
	MarketCap       *decimal.Decimal
	MarketCapSource string
}

// IsSmallCap reports whether the event belongs in the small-cap output
// set: a resolved market cap strictly below the threshold.
func (e *FilingEvent) IsSmallCap(threshold decimal.Decimal) bool {
	return e.MarketCap != nil && e.MarketCap.LessThan(threshold)
}

// Result accumulates one collection run.
type Result struct {
	All      []FilingEvent
	SmallCap []FilingEvent
	Stats    marketcap.Stats

	Companies            int
	SkippedWrongExchange int
	SkippedNoExchange    int
}
