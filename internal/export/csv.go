// Package export writes collection results as CSV files, an optional
// PNG chart, and console summaries.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"delisting-scanner/internal/collector"
)

var eventHeader = []string{
	"ticker",
	"company_name",
	"cik",
	"exchange",
	"form_type",
	"filing_date",
	"accession_number",
	"primary_document",
	"market_cap",
	"market_cap_source",
}

// Dedupe sorts events by filing date descending and keeps the first row
// per ticker, so the most recent filing wins. A ticker with two
// independent delisting filings loses the older one.
func Dedupe(events []collector.FilingEvent) []collector.FilingEvent {
	sorted := make([]collector.FilingEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FilingDate.After(sorted[j].FilingDate)
	})

	seen := make(map[string]struct{}, len(sorted))
	unique := sorted[:0]
	for _, event := range sorted {
		if _, ok := seen[event.Ticker]; ok {
			continue
		}
		seen[event.Ticker] = struct{}{}
		unique = append(unique, event)
	}
	return unique
}

// WriteEventsCSV deduplicates the events, writes the full rows to path,
// and writes a companion "<path minus .csv>_symbols_only.csv" holding
// just the sorted ticker column. Returns the number of unique rows.
func WriteEventsCSV(path string, events []collector.FilingEvent) (int, error) {
	unique := Dedupe(events)

	if err := writeRows(path, eventHeader, eventRows(unique)); err != nil {
		return 0, err
	}

	if err := writeRows(symbolsPath(path), []string{"ticker"}, symbolRows(unique)); err != nil {
		return 0, err
	}

	return len(unique), nil
}

func eventRows(events []collector.FilingEvent) [][]string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		mc := ""
		if event.MarketCap != nil {
			mc = event.MarketCap.String()
		}
		rows = append(rows, []string{
			event.Ticker,
			event.CompanyName,
			event.CIK,
			event.Exchange,
			event.FormType,
			formatDate(event.FilingDate),
			event.AccessionNumber,
			event.PrimaryDocument,
			mc,
			event.MarketCapSource,
		})
	}
	return rows
}

func symbolRows(events []collector.FilingEvent) [][]string {
	tickers := make([]string, 0, len(events))
	for _, event := range events {
		tickers = append(tickers, event.Ticker)
	}
	sort.Strings(tickers)

	rows := make([][]string, 0, len(tickers))
	for _, ticker := range tickers {
		rows = append(rows, []string{ticker})
	}
	return rows
}

func writeRows(path string, header []string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

func symbolsPath(path string) string {
	if strings.HasSuffix(path, ".csv") {
		return strings.TrimSuffix(path, ".csv") + "_symbols_only.csv"
	}
	return path + "_symbols_only.csv"
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
