package app

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"delisting-scanner/internal/config"
	"delisting-scanner/internal/edgar"
)

func newEdgarServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"0":{"cik_str":1,"ticker":"ABCD","title":"Acme Corp"}}`))
	})
	mux.HandleFunc("/submissions/CIK0000000001.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
  "cik": "1",
  "name": "Acme Corp",
  "filings": {
    "recent": {
      "form": ["10-K", "25"],
      "filingDate": ["2020-03-01", "2020-06-15"],
      "accessionNumber": ["a1", "a2"],
      "primaryDocument": ["d1.htm", "d2.htm"]
    }
  }
}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newYahooServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1591833600],"indicators":{"quote":[{"close":[10.0]}]}}],"error":null}}`))
	})
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"price":{"exchange":"NMS","marketCap":{}},"defaultKeyStatistics":{"sharesOutstanding":{"raw":5000000}}}],"error":null}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(edgarURL, yahooURL, outDir string) *config.Config {
	return &config.Config{
		Scan: config.ScanConfig{
			StartDate:       "2015-01-01",
			EndDate:         "2024-12-31",
			MaxMarketCap:    2_000_000_000,
			TargetExchanges: []string{"NYSE", "NASDAQ", "AMEX"},
		},
		Edgar: config.EdgarConfig{
			UserAgent:      "test test@example.com",
			BaseURL:        edgarURL,
			RegistryURLs:   []string{edgarURL + "/files/company_tickers.json"},
			RequestTimeout: 5 * time.Second,
		},
		Yahoo: config.YahooConfig{
			BaseURL:        yahooURL,
			RequestTimeout: 5 * time.Second,
		},
		Output: config.OutputConfig{
			Dir:          outDir,
			AllFile:      "delisted_all.csv",
			SmallCapFile: "delisted_small_caps.csv",
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestScanEndToEnd(t *testing.T) {
	edgarSrv := newEdgarServer(t)
	yahooSrv := newYahooServer(t)
	outDir := t.TempDir()

	a := NewApp(testConfig(edgarSrv.URL, yahooSrv.URL, outDir), zerolog.Nop())
	if err := a.Scan(context.Background(), ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	allRows := readCSV(t, filepath.Join(outDir, "delisted_all.csv"))
	if len(allRows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(allRows))
	}
	row := allRows[1]
	if row[0] != "ABCD" || row[3] != "NASDAQ" || row[4] != "25" || row[5] != "2020-06-15" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[8] != "50000000" || row[9] != "yahoo_historical" {
		t.Fatalf("unexpected market cap columns: %v", row)
	}

	smallRows := readCSV(t, filepath.Join(outDir, "delisted_small_caps.csv"))
	if len(smallRows) != 2 {
		t.Fatalf("50M cap belongs in the small-cap file, got %d rows", len(smallRows))
	}

	if _, err := os.Stat(filepath.Join(outDir, "delisted_all_symbols_only.csv")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "delisted_small_caps_symbols_only.csv")); err != nil {
		t.Fatal(err)
	}
}

func TestScanRegistryFailureWritesNothing(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)
	outDir := t.TempDir()

	a := NewApp(testConfig(broken.URL, broken.URL, outDir), zerolog.Nop())
	err := a.Scan(context.Background(), ScanOptions{})
	if !errors.Is(err, edgar.ErrRegistryUnavailable) {
		t.Fatalf("expected ErrRegistryUnavailable, got %v", err)
	}

	entries, readErr := os.ReadDir(outDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("no output files may exist after a registry failure, found %d", len(entries))
	}
}

func TestScanOptionOverrides(t *testing.T) {
	edgarSrv := newEdgarServer(t)
	yahooSrv := newYahooServer(t)
	outDir := t.TempDir()

	a := NewApp(testConfig(edgarSrv.URL, yahooSrv.URL, outDir), zerolog.Nop())
	err := a.Scan(context.Background(), ScanOptions{
		StartDate: "2021-01-01",
		EndDate:   "2021-12-31",
	})
	if err != nil {
		t.Fatal(err)
	}

	allRows := readCSV(t, filepath.Join(outDir, "delisted_all.csv"))
	if len(allRows) != 1 {
		t.Fatalf("the 2020 filing is outside the overridden window, got %d rows", len(allRows))
	}
}
