package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"delisting-scanner/internal/export"
	"delisting-scanner/internal/marketcap"
)

// ResolveTicker runs the market-cap cascade once for a single ticker and
// prints the outcome. Useful for checking data coverage before a long
// scan.
func (a *App) ResolveTicker(ctx context.Context, ticker, dateStr string) error {
	refDate := time.Now().UTC()
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid --date value: %w", err)
		}
		refDate = parsed
	}

	yahoo := a.newYahoo()
	resolver := a.newResolver(yahoo)
	state := resolver.NewRunState(ctx)

	var stats marketcap.Stats
	mc, source := resolver.Resolve(ctx, ticker, refDate, state, &stats)

	if mc == nil {
		fmt.Fprintf(os.Stdout, "%s: no market cap available (as of %s)\n", ticker, refDate.Format("2006-01-02"))
	} else {
		fmt.Fprintf(os.Stdout, "%s: %s USD (source %s, as of %s)\n", ticker, mc.StringFixed(0), source, refDate.Format("2006-01-02"))
	}
	export.PrintStats(os.Stdout, stats)
	return nil
}
