package quotes

// Yahoo Finance API response shapes. Numeric fields on the v10 endpoint
// arrive as {raw, fmt} pairs; only raw is consumed here.

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooError        `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yahooQuoteSeries `json:"quote"`
	} `json:"indicators"`
}

type yahooQuoteSeries struct {
	Close []*float64 `json:"close"`
}

type yahooSummaryResponse struct {
	QuoteSummary struct {
		Result []yahooSummaryResult `json:"result"`
		Error  *yahooError          `json:"error"`
	} `json:"quoteSummary"`
}

type yahooSummaryResult struct {
	Price                *yahooPrice         `json:"price"`
	DefaultKeyStatistics *yahooKeyStatistics `json:"defaultKeyStatistics"`
	SummaryDetail        *yahooSummaryDetail `json:"summaryDetail"`
}

type yahooPrice struct {
	Exchange  string      `json:"exchange"`
	MarketCap yahooFinVal `json:"marketCap"`
}

type yahooKeyStatistics struct {
	SharesOutstanding        yahooFinVal `json:"sharesOutstanding"`
	ImpliedSharesOutstanding yahooFinVal `json:"impliedSharesOutstanding"`
	FloatShares              yahooFinVal `json:"floatShares"`
}

type yahooSummaryDetail struct {
	MarketCap yahooFinVal `json:"marketCap"`
}

type yahooFinVal struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

// FMP quote array element.
type fmpQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"marketCap"`
}
