package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// Show prints recently archived delisting events from the database.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show archived events")
	}
	if closeStore != nil {
		defer closeStore()
	}

	events, err := store.ListRecentEvents(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "no archived events found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tCompany\tExchange\tForm\tFiled\tMarket Cap\tSource\tSmall Cap")

	for _, event := range events {
		mc := ""
		if event.MarketCap != nil {
			mc = event.MarketCap.StringFixed(0)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			event.Ticker,
			event.CompanyName,
			event.Exchange,
			event.FormType,
			event.FilingDate.Format(time.DateOnly),
			mc,
			event.MarketCapSource,
			event.SmallCap,
		)
	}

	writer.Flush()
	return nil
}
