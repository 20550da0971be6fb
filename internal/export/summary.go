package export

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"delisting-scanner/internal/collector"
	"delisting-scanner/internal/marketcap"
)

// PrintStats writes the per-strategy retrieval statistics.
func PrintStats(w io.Writer, stats marketcap.Stats) {
	if stats.Total == 0 {
		return
	}

	fmt.Fprintln(w, "Market cap retrieval:")
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "  total\t%d\t\n", stats.Total)
	fmt.Fprintf(writer, "  fetched\t%d\t(%.1f%%)\n", stats.Successful(), pct(stats.Successful(), stats.Total))
	fmt.Fprintf(writer, "  failed\t%d\t(%.1f%%)\n", stats.Failed, pct(stats.Failed, stats.Total))
	fmt.Fprintf(writer, "  yahoo historical\t%d\t\n", stats.YahooHistorical)
	fmt.Fprintf(writer, "  fmp api\t%d\t\n", stats.FMP)
	fmt.Fprintf(writer, "  calculated\t%d\t\n", stats.Calculated)
	fmt.Fprintf(writer, "  yahoo current\t%d\t\n", stats.YahooCurrent)
	writer.Flush()
}

// PrintSummary writes the end-of-run classification and exchange
// breakdown for the deduplicated result set.
func PrintSummary(w io.Writer, all, smallCap []collector.FilingEvent, threshold decimal.Decimal) {
	unique := Dedupe(all)
	total := len(unique)
	if total == 0 {
		fmt.Fprintln(w, "No delisting filings matched.")
		return
	}

	withCap := 0
	byExchange := make(map[string]int)
	for _, event := range unique {
		if event.MarketCap != nil {
			withCap++
		}
		byExchange[event.Exchange]++
	}
	smallCaps := len(Dedupe(smallCap))
	largeCaps := withCap - smallCaps

	fmt.Fprintf(w, "Delistings found: %d\n", total)
	fmt.Fprintf(w, "  small caps (< %s): %d\n", threshold.String(), smallCaps)
	fmt.Fprintf(w, "  large caps: %d\n", largeCaps)
	fmt.Fprintf(w, "  unknown market cap: %d\n", total-withCap)

	fmt.Fprintln(w, "Exchange breakdown:")
	exchanges := make([]string, 0, len(byExchange))
	for exchange := range byExchange {
		exchanges = append(exchanges, exchange)
	}
	sort.Strings(exchanges)

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, exchange := range exchanges {
		fmt.Fprintf(writer, "  %s\t%d\t\n", exchange, byExchange[exchange])
	}
	writer.Flush()
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
