package edgar

import (
	"encoding/json"
	"time"
)

// registryEntry is one value of the company_tickers.json object.
// cik_str arrives as a bare number in some registry files and as a
// string in others, hence json.Number.
type registryEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// Submissions is the per-CIK filing history document.
type Submissions struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds parallel arrays: index i across every field
// describes one filing.
type RecentFilings struct {
	Form            []string `json:"form"`
	FilingDate      []string `json:"filingDate"`
	AccessionNumber []string `json:"accessionNumber"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing is one materialised entry from the parallel arrays.
type Filing struct {
	Form            string
	FilingDate      time.Time
	AccessionNumber string
	PrimaryDocument string
}

// Len returns the number of filings described by the parallel arrays.
func (r *RecentFilings) Len() int {
	return len(r.Form)
}

// Entry materialises filing i. Fields missing from shorter sibling
// arrays are left empty rather than panicking on ragged data.
func (r *RecentFilings) Entry(i int) Filing {
	f := Filing{Form: r.Form[i]}
	if i < len(r.FilingDate) {
		if d, err := time.Parse("2006-01-02", r.FilingDate[i]); err == nil {
			f.FilingDate = d
		}
	}
	if i < len(r.AccessionNumber) {
		f.AccessionNumber = r.AccessionNumber[i]
	}
	if i < len(r.PrimaryDocument) {
		f.PrimaryDocument = r.PrimaryDocument[i]
	}
	return f
}
