package yfinance

// --- Yahoo Finance API response types ---

// yfValue is one formatted numeric field from the quoteSummary API.
// Raw is a pointer: Yahoo omits fields it has no value for, and a
// missing field must stay distinct from zero.
type yfValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// yfQuoteSummaryResponse wraps the v10 quoteSummary API response.
type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

// yfQuoteSummaryResult holds the modules requested for a snapshot.
// Any module can be missing for thinly covered tickers.
type yfQuoteSummaryResult struct {
	Price                *yfPrice                `json:"price"`
	SummaryDetail        *yfSummaryDetail        `json:"summaryDetail"`
	DefaultKeyStatistics *yfDefaultKeyStatistics `json:"defaultKeyStatistics"`
	FinancialData        *yfFinancialData        `json:"financialData"`
}

type yfPrice struct {
	RegularMarketPrice yfValue `json:"regularMarketPrice"`
	MarketCap          yfValue `json:"marketCap"`
	Currency           string  `json:"currency"`
	ShortName          string  `json:"shortName"`
}

type yfSummaryDetail struct {
	MarketCap     yfValue `json:"marketCap"`
	TrailingPE    yfValue `json:"trailingPE"`
	DividendRate  yfValue `json:"dividendRate"`
	DividendYield yfValue `json:"dividendYield"`
}

type yfDefaultKeyStatistics struct {
	PriceToBook yfValue `json:"priceToBook"`
	BookValue   yfValue `json:"bookValue"`
	TrailingEps yfValue `json:"trailingEps"`
}

type yfFinancialData struct {
	CurrentPrice yfValue `json:"currentPrice"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
