package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"delisting-scanner/internal/collector"
	"delisting-scanner/internal/edgar"
	"delisting-scanner/internal/export"
	"delisting-scanner/internal/storage"
)

// ScanOptions override configured scan parameters from the CLI.
type ScanOptions struct {
	StartDate    string
	EndDate      string
	MaxMarketCap float64
	AllPath      string
	SmallCapPath string
	PNGPath      string
}

// Scan executes a full collection run: registry walk, filing match,
// market-cap resolution, CSV export, optional chart, optional archive.
// When the registry is unavailable no output files are written at all;
// a successful run always writes both CSVs, header-only when empty.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.StartDate != "" {
		a.Config.Scan.StartDate = opts.StartDate
	}
	if opts.EndDate != "" {
		a.Config.Scan.EndDate = opts.EndDate
	}
	if opts.MaxMarketCap > 0 {
		a.Config.Scan.MaxMarketCap = opts.MaxMarketCap
	}

	start, end, err := a.Config.ScanWindow()
	if err != nil {
		return err
	}
	threshold := decimal.NewFromFloat(a.Config.Scan.MaxMarketCap)

	runID := uuid.New()
	logger := a.Logger.With().Str("run_id", runID.String()).Logger()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}
	if store == nil {
		logger.Debug().Msg("database.dsn not configured; archive disabled")
	}

	yahoo := a.newYahoo()
	resolver := a.newResolver(yahoo)
	coll := a.newCollector(a.newEdgarClient(), yahoo, resolver)

	state := resolver.NewRunState(ctx)

	startedAt := time.Now().UTC()
	result, err := coll.Collect(ctx, start, end, threshold, state)
	if err != nil {
		if errors.Is(err, edgar.ErrRegistryUnavailable) {
			logger.Error().Msg("company registry unavailable; no output written")
		}
		return err
	}
	finishedAt := time.Now().UTC()

	allPath := a.resolveOutputPath(opts.AllPath, a.Config.Output.AllFile)
	smallPath := a.resolveOutputPath(opts.SmallCapPath, a.Config.Output.SmallCapFile)

	allRows, err := export.WriteEventsCSV(allPath, result.All)
	if err != nil {
		return fmt.Errorf("write all-events csv: %w", err)
	}
	smallRows, err := export.WriteEventsCSV(smallPath, result.SmallCap)
	if err != nil {
		return fmt.Errorf("write small-cap csv: %w", err)
	}
	logger.Info().
		Str("all", allPath).Int("all_rows", allRows).
		Str("small_cap", smallPath).Int("small_cap_rows", smallRows).
		Msg("results written")

	if pngPath := a.resolveOutputPath(opts.PNGPath, a.Config.Output.PNGFile); pngPath != "" {
		if err := export.WriteCapChartPNG(pngPath, result.All); err != nil {
			logger.Warn().Err(err).Str("path", pngPath).Msg("chart not written")
		}
	}

	if store != nil {
		a.archiveRun(ctx, store, runID, start, end, threshold, startedAt, finishedAt, result, logger)
	}

	export.PrintStats(os.Stdout, result.Stats)
	export.PrintSummary(os.Stdout, result.All, result.SmallCap, threshold)
	return nil
}

// resolveOutputPath joins a configured file name with the output dir,
// unless the CLI supplied an explicit path.
func (a *App) resolveOutputPath(override, configured string) string {
	if override != "" {
		return override
	}
	if configured == "" {
		return ""
	}
	if a.Config.Output.Dir == "" {
		return configured
	}
	return filepath.Join(a.Config.Output.Dir, configured)
}

// archiveRun is best effort: archive failures are logged, never fatal.
func (a *App) archiveRun(ctx context.Context, store storage.EventStore, runID uuid.UUID, start, end time.Time, threshold decimal.Decimal, startedAt, finishedAt time.Time, result *collector.Result, logger zerolog.Logger) {
	run := storage.ScanRun{
		RunID:        runID,
		StartDate:    start,
		EndDate:      end,
		MaxMarketCap: threshold,
		Companies:    result.Companies,
		Found:        len(result.All),
		SmallCaps:    len(result.SmallCap),
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	}
	if err := store.InsertScanRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("failed to archive scan run")
		return
	}

	records := make([]storage.EventRecord, 0, len(result.All))
	for _, event := range result.All {
		records = append(records, storage.EventRecord{
			RunID:           runID,
			Ticker:          event.Ticker,
			CompanyName:     event.CompanyName,
			CIK:             event.CIK,
			Exchange:        event.Exchange,
			FormType:        event.FormType,
			FilingDate:      event.FilingDate,
			AccessionNumber: event.AccessionNumber,
			PrimaryDocument: event.PrimaryDocument,
			MarketCap:       event.MarketCap,
			MarketCapSource: event.MarketCapSource,
			SmallCap:        event.IsSmallCap(threshold),
		})
	}
	if err := store.UpsertEvents(ctx, records); err != nil {
		logger.Warn().Err(err).Msg("failed to archive events")
	}
}
