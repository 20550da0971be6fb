package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"delisting-scanner/internal/edgar"
	"delisting-scanner/internal/marketcap"
	"delisting-scanner/internal/quotes"
)

type fakeSource struct {
	registry    map[string]edgar.Company
	registryErr error
	submissions map[string]*edgar.Submissions
	failCIKs    map[string]bool
}

func (f *fakeSource) FetchRegistry(ctx context.Context) (map[string]edgar.Company, error) {
	if f.registryErr != nil {
		return nil, f.registryErr
	}
	return f.registry, nil
}

func (f *fakeSource) FetchSubmissions(ctx context.Context, cik string) (*edgar.Submissions, error) {
	if f.failCIKs[cik] {
		return nil, errors.New("submissions unavailable")
	}
	subs, ok := f.submissions[cik]
	if !ok {
		return &edgar.Submissions{}, nil
	}
	return subs, nil
}

type fakeInfoFetcher struct {
	exchanges map[string]string
	err       error
	calls     int
}

func (f *fakeInfoFetcher) FetchInfo(ctx context.Context, ticker string) (quotes.Info, error) {
	f.calls++
	if f.err != nil {
		return quotes.Info{}, f.err
	}
	return quotes.Info{Exchange: f.exchanges[ticker]}, nil
}

type fakeResolver struct {
	mc     *decimal.Decimal
	source string
	calls  int
}

func (f *fakeResolver) Resolve(ctx context.Context, ticker string, refDate time.Time, state *marketcap.State, stats *marketcap.Stats) (*decimal.Decimal, string) {
	f.calls++
	stats.Total++
	if f.mc == nil {
		stats.Failed++
	} else {
		stats.Calculated++
	}
	return f.mc, f.source
}

func capOf(v int64) *decimal.Decimal {
	mc := decimal.NewFromInt(v)
	return &mc
}

func submissionsWith(forms, dates []string) *edgar.Submissions {
	subs := &edgar.Submissions{}
	subs.Filings.Recent = edgar.RecentFilings{
		Form:            forms,
		FilingDate:      dates,
		AccessionNumber: accessions(len(forms)),
		PrimaryDocument: documents(len(forms)),
	}
	return subs
}

func accessions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "0000000001-20-00000" + string(rune('1'+i))
	}
	return out
}

func documents(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "doc.htm"
	}
	return out
}

func scanWindow(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start, err := time.Parse("2006-01-02", "2015-01-01")
	if err != nil {
		t.Fatal(err)
	}
	end, err := time.Parse("2006-01-02", "2024-12-31")
	if err != nil {
		t.Fatal(err)
	}
	return start, end
}

func TestCollectMatchesDelistingFiling(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000001": {CIK: "0000000001", Ticker: "ABCD", Title: "Acme Corp"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000001": submissionsWith(
				[]string{"10-K", "25", "8-K"},
				[]string{"2020-03-01", "2020-06-15", "2020-07-01"},
			),
		},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"ABCD": "NMS"}}
	resolver := &fakeResolver{mc: capOf(50_000_000), source: marketcap.SourceCalculated}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNYSE, ExchangeNASDAQ, ExchangeAMEX},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.All))
	}
	event := result.All[0]
	if event.Ticker != "ABCD" || event.CompanyName != "Acme Corp" || event.CIK != "0000000001" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Exchange != ExchangeNASDAQ {
		t.Fatalf("expected NASDAQ, got %s", event.Exchange)
	}
	if event.FormType != "25" || event.FilingDate.Format("2006-01-02") != "2020-06-15" {
		t.Fatalf("unexpected filing fields: %+v", event)
	}
	if event.MarketCap == nil || !event.MarketCap.Equal(decimal.NewFromInt(50_000_000)) {
		t.Fatalf("unexpected market cap: %v", event.MarketCap)
	}
	if event.MarketCapSource != marketcap.SourceCalculated {
		t.Fatalf("unexpected source: %s", event.MarketCapSource)
	}

	if len(result.SmallCap) != 1 {
		t.Fatalf("50M cap belongs in the small-cap set, got %d entries", len(result.SmallCap))
	}
	if result.Companies != 1 || result.Stats.Total != 1 {
		t.Fatalf("unexpected run accounting: %+v", result)
	}
}

func TestCollectMatchesBothFormVariants(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000002": {CIK: "0000000002", Ticker: "EFGH", Title: "Beta Inc"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000002": submissionsWith(
				[]string{"25", "25-NSE", "25/A"},
				[]string{"2019-01-10", "2021-04-20", "2021-05-01"},
			),
		},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"EFGH": "NYQ"}}
	resolver := &fakeResolver{mc: capOf(900_000_000), source: marketcap.SourceCalculated}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNYSE},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 2 {
		t.Fatalf("expected forms 25 and 25-NSE to match and 25/A to be ignored, got %d events", len(result.All))
	}
}

func TestCollectDateWindowInclusive(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000003": {CIK: "0000000003", Ticker: "IJKL", Title: "Gamma LLC"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000003": submissionsWith(
				[]string{"25", "25", "25", "25"},
				[]string{"2014-12-31", "2015-01-01", "2024-12-31", "2025-01-01"},
			),
		},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"IJKL": "ASE"}}
	resolver := &fakeResolver{mc: capOf(10_000_000), source: marketcap.SourceCalculated}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeAMEX},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 2 {
		t.Fatalf("window is inclusive on both ends, expected 2 events, got %d", len(result.All))
	}
	for _, event := range result.All {
		d := event.FilingDate.Format("2006-01-02")
		if d != "2015-01-01" && d != "2024-12-31" {
			t.Fatalf("unexpected filing date %s", d)
		}
	}
}

func TestCollectExcludesNonTargetExchange(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000004": {CIK: "0000000004", Ticker: "MNOP", Title: "Delta Corp"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000004": submissionsWith([]string{"25"}, []string{"2020-06-15"}),
		},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"MNOP": "PCX"}}
	resolver := &fakeResolver{mc: capOf(10_000_000), source: marketcap.SourceCalculated}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNYSE, ExchangeNASDAQ, ExchangeAMEX},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 0 || len(result.SmallCap) != 0 {
		t.Fatalf("NYSE ARCA filing must be excluded from both sets: %+v", result)
	}
	if result.SkippedWrongExchange != 1 {
		t.Fatalf("expected 1 wrong-exchange skip, got %d", result.SkippedWrongExchange)
	}
	if resolver.calls != 0 {
		t.Fatalf("market cap must not be resolved for excluded filings, got %d calls", resolver.calls)
	}
}

func TestCollectExcludesUnknownExchange(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000005": {CIK: "0000000005", Ticker: "QRST", Title: "Epsilon Ltd"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000005": submissionsWith([]string{"25"}, []string{"2020-06-15"}),
		},
	}
	info := &fakeInfoFetcher{err: errors.New("ticker not found")}
	resolver := &fakeResolver{mc: capOf(10_000_000), source: marketcap.SourceCalculated}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNYSE},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 0 {
		t.Fatalf("unknown-exchange filing must be excluded: %+v", result.All)
	}
	if result.SkippedNoExchange != 1 {
		t.Fatalf("expected 1 no-exchange skip, got %d", result.SkippedNoExchange)
	}
}

func TestCollectRegistryFailureIsFatal(t *testing.T) {
	source := &fakeSource{registryErr: edgar.ErrRegistryUnavailable}
	c := New(source, &fakeInfoFetcher{}, &fakeResolver{}, Options{
		TargetExchanges: []string{ExchangeNYSE},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if !errors.Is(err, edgar.ErrRegistryUnavailable) {
		t.Fatalf("expected registry error, got %v", err)
	}
	if result != nil {
		t.Fatalf("no partial result on registry failure, got %+v", result)
	}
}

func TestCollectSkipsCompanyOnSubmissionsFailure(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000006": {CIK: "0000000006", Ticker: "UVWX", Title: "Zeta Co"},
			"0000000007": {CIK: "0000000007", Ticker: "YZAB", Title: "Eta Co"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000007": submissionsWith([]string{"25"}, []string{"2020-06-15"}),
		},
		failCIKs: map[string]bool{"0000000006": true},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"YZAB": "NYQ"}}
	resolver := &fakeResolver{mc: capOf(10_000_000), source: marketcap.SourceCalculated}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNYSE},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 1 || result.All[0].Ticker != "YZAB" {
		t.Fatalf("the healthy company must survive a sibling failure: %+v", result.All)
	}
}

func TestCollectUnresolvedCapStaysInAllSet(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000008": {CIK: "0000000008", Ticker: "CDEF", Title: "Theta Inc"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000008": submissionsWith([]string{"25"}, []string{"2020-06-15"}),
		},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"CDEF": "NMS"}}
	resolver := &fakeResolver{mc: nil, source: marketcap.SourceNone}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNASDAQ},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 1 {
		t.Fatalf("expected the unresolved event in the all set, got %d", len(result.All))
	}
	event := result.All[0]
	if event.MarketCap != nil || event.MarketCapSource != marketcap.SourceNone {
		t.Fatalf("unresolved event must carry no cap and source none: %+v", event)
	}
	if len(result.SmallCap) != 0 {
		t.Fatal("unresolved caps never qualify as small cap")
	}
}

func TestCollectLargeCapExcludedFromSmallCapSet(t *testing.T) {
	source := &fakeSource{
		registry: map[string]edgar.Company{
			"0000000009": {CIK: "0000000009", Ticker: "GHIJ", Title: "Iota PLC"},
		},
		submissions: map[string]*edgar.Submissions{
			"0000000009": submissionsWith([]string{"25"}, []string{"2020-06-15"}),
		},
	}
	info := &fakeInfoFetcher{exchanges: map[string]string{"GHIJ": "NYQ"}}
	resolver := &fakeResolver{mc: capOf(2_000_000_000), source: marketcap.SourceFMP}

	c := New(source, info, resolver, Options{
		TargetExchanges: []string{ExchangeNYSE},
	}, zerolog.Nop())

	start, end := scanWindow(t)
	result, err := c.Collect(context.Background(), start, end, decimal.NewFromInt(2_000_000_000), &marketcap.State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.All) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.All))
	}
	if len(result.SmallCap) != 0 {
		t.Fatal("a cap exactly at the threshold is not below it")
	}
}
