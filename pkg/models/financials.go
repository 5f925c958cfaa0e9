package models

import "time"

// PeriodType identifies the reporting period of a financial summary.
type PeriodType string

const (
	PeriodQ1       PeriodType = "1Q"
	PeriodQ2       PeriodType = "2Q"
	PeriodQ3       PeriodType = "3Q"
	PeriodFullYear PeriodType = "FY"
)

// Cumulative reports whether figures for this period are year-to-date
// totals that need the prior quarter subtracted to recover a standalone
// quarter. Q1 and full-year figures stand on their own.
func (p PeriodType) Cumulative() bool {
	return p == PeriodQ2 || p == PeriodQ3
}

// FinancialPeriodSample is one disclosed fiscal record from the
// financial-summary provider. Metric amounts are in yen; nil marks a
// metric the filing did not report.
type FinancialPeriodSample struct {
	CompanyCode     string     `json:"company_code"`
	PeriodType      PeriodType `json:"period_type"`
	FiscalYearStart string     `json:"fiscal_year_start"` // YYYY-MM-DD
	DisclosureDate  time.Time  `json:"disclosure_date"`
	Sales           *float64   `json:"sales,omitempty"`
	OperatingIncome *float64   `json:"operating_income,omitempty"`
	OrdinaryIncome  *float64   `json:"ordinary_income,omitempty"`
	NetIncome       *float64   `json:"net_income,omitempty"`
}

// QuarterlyMetrics holds the standalone-quarter figures in millions of
// yen. nil marks a metric that could not be derived.
type QuarterlyMetrics struct {
	Sales           *int64 `json:"sales,omitempty"`
	OperatingIncome *int64 `json:"operating_income,omitempty"`
	OrdinaryIncome  *int64 `json:"ordinary_income,omitempty"`
	NetIncome       *int64 `json:"net_income,omitempty"`
}

// DailyBar is one daily OHLCV bar from the price feed.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
