package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScanRun summarises one archived collection run.
type ScanRun struct {
	RunID        uuid.UUID
	StartDate    time.Time
	EndDate      time.Time
	MaxMarketCap decimal.Decimal
	Companies    int
	Found        int
	SmallCaps    int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// EventRecord is one archived delisting event, keyed by
// (run_id, ticker, accession_number).
type EventRecord struct {
	RunID           uuid.UUID
	Ticker          string
	CompanyName     string
	CIK             string
	Exchange        string
	FormType        string
	FilingDate      time.Time
	AccessionNumber string
	PrimaryDocument string
	MarketCap       *decimal.Decimal
	MarketCapSource string
	SmallCap        bool
	CreatedAt       time.Time
}
