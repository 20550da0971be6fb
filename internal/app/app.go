package app

import (
	"context"

	"github.com/rs/zerolog"

	"delisting-scanner/internal/collector"
	"delisting-scanner/internal/config"
	"delisting-scanner/internal/edgar"
	"delisting-scanner/internal/marketcap"
	"delisting-scanner/internal/quotes"
	"delisting-scanner/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newEdgarClient() *edgar.Client {
	return edgar.NewClient(edgar.Options{
		BaseURL:      a.Config.Edgar.BaseURL,
		RegistryURLs: a.Config.Edgar.RegistryURLs,
		UserAgent:    a.Config.Edgar.UserAgent,
		Timeout:      a.Config.Edgar.RequestTimeout,
	}, a.Logger)
}

func (a *App) newYahoo() *quotes.Yahoo {
	return quotes.NewYahoo(quotes.YahooOptions{
		BaseURL:   a.Config.Yahoo.BaseURL,
		Timeout:   a.Config.Yahoo.RequestTimeout,
		UserAgent: a.Config.Edgar.UserAgent,
	}, a.Logger)
}

func (a *App) newResolver(yahoo *quotes.Yahoo) *marketcap.Resolver {
	var quote quotes.QuoteFetcher
	if a.Config.FMP.APIKey != "" {
		quote = quotes.NewFMP(quotes.FMPOptions{
			BaseURL: a.Config.FMP.BaseURL,
			APIKey:  a.Config.FMP.APIKey,
			Timeout: a.Config.FMP.RequestTimeout,
		}, a.Logger)
	}
	return marketcap.New(yahoo, yahoo, quote, a.Logger)
}

func (a *App) newCollector(source collector.FilingSource, info quotes.InfoFetcher, resolver collector.CapResolver) *collector.Collector {
	return collector.New(source, info, resolver, collector.Options{
		TargetExchanges: a.Config.Scan.TargetExchanges,
		FetchDelay:      a.Config.Edgar.FetchDelay,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}
