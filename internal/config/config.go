package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"delisting-scanner/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Edgar    EdgarConfig    `mapstructure:"edgar"`
	Yahoo    YahooConfig    `mapstructure:"yahoo"`
	FMP      FMPConfig      `mapstructure:"fmp"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ScanConfig bounds the collection run.
type ScanConfig struct {
	StartDate       string   `mapstructure:"start_date"`
	EndDate         string   `mapstructure:"end_date"`
	MaxMarketCap    float64  `mapstructure:"max_market_cap"`
	TargetExchanges []string `mapstructure:"target_exchanges"`
}

// EdgarConfig covers SEC EDGAR access. The SEC requires a contact
// identifier in the User-Agent header and caps clients at roughly ten
// requests per second, hence the fixed per-company fetch delay.
type EdgarConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	BaseURL        string        `mapstructure:"base_url"`
	RegistryURLs   []string      `mapstructure:"registry_urls"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FetchDelay     time.Duration `mapstructure:"fetch_delay"`
}

// YahooConfig captures Yahoo Finance connectivity.
type YahooConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// FMPConfig captures Financial Modeling Prep connectivity. The API key is
// optional; without one the secondary quote strategy is never attempted.
type FMPConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// OutputConfig sets result file destinations.
type OutputConfig struct {
	Dir          string `mapstructure:"dir"`
	AllFile      string `mapstructure:"all_file"`
	SmallCapFile string `mapstructure:"small_cap_file"`
	PNGFile      string `mapstructure:"png_file"`
}

// DatabaseConfig encapsulates the optional PostgreSQL archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DELISTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "delistscan")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scan.start_date", "2015-01-01")
	v.SetDefault("scan.end_date", "2024-12-31")
	v.SetDefault("scan.max_market_cap", 2_000_000_000.0)
	v.SetDefault("scan.target_exchanges", []string{"NYSE", "NASDAQ", "AMEX"})

	// Registered empty so environment-only values reach Unmarshal.
	v.SetDefault("edgar.user_agent", "")
	v.SetDefault("fmp.api_key", "")
	v.SetDefault("database.dsn", "")

	v.SetDefault("edgar.base_url", "https://data.sec.gov")
	v.SetDefault("edgar.registry_urls", []string{
		"https://www.sec.gov/files/company_tickers.json",
		"https://data.sec.gov/files/company_tickers.json",
		"https://www.sec.gov/files/company_tickers_exchange.json",
	})
	v.SetDefault("edgar.request_timeout", "30s")
	v.SetDefault("edgar.fetch_delay", "110ms")

	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.request_timeout", "10s")

	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("fmp.request_timeout", "10s")

	v.SetDefault("output.dir", "outputs")
	v.SetDefault("output.all_file", "delisted_all.csv")
	v.SetDefault("output.small_cap_file", "delisted_small_caps.csv")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if _, err := time.Parse("2006-01-02", c.Scan.StartDate); err != nil {
		return fmt.Errorf("scan.start_date must be YYYY-MM-DD: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Scan.EndDate); err != nil {
		return fmt.Errorf("scan.end_date must be YYYY-MM-DD: %w", err)
	}
	if c.Scan.MaxMarketCap <= 0 {
		return fmt.Errorf("scan.max_market_cap must be greater than zero")
	}
	if len(c.Scan.TargetExchanges) == 0 {
		return fmt.Errorf("scan.target_exchanges cannot be empty")
	}
	if strings.TrimSpace(c.Edgar.UserAgent) == "" {
		return fmt.Errorf("edgar.user_agent must identify you per SEC policy, e.g. \"ResearchBot contact@example.com\"")
	}
	if len(c.Edgar.RegistryURLs) == 0 {
		return fmt.Errorf("edgar.registry_urls cannot be empty")
	}
	if c.Edgar.FetchDelay < 0 {
		return fmt.Errorf("edgar.fetch_delay cannot be negative")
	}
	return nil
}

// ScanWindow parses the configured date range.
func (c *Config) ScanWindow() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", c.Scan.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse scan.start_date: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.Scan.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse scan.end_date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("scan.end_date is before scan.start_date")
	}
	return start, end, nil
}
