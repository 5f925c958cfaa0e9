package models

import "time"

// FilingDocument is one regulatory filing found in an EDINET document
// search.
type FilingDocument struct {
	DocID          string    `json:"doc_id"`
	SecCode        string    `json:"sec_code"` // 5-digit EDINET form
	FormCode       string    `json:"form_code"`
	Description    string    `json:"description"`
	PeriodStart    string    `json:"period_start"` // YYYY-MM-DD, may be empty
	PeriodEnd      string    `json:"period_end"`
	FilerName      string    `json:"filer_name"`
	SubmitDateTime time.Time `json:"submit_datetime"`
}

// FilingFinancials holds the metric values extracted from one filing's
// archive, in yen. Extraction is best effort; nil marks a metric the
// archive did not yield.
type FilingFinancials struct {
	Sales           *float64 `json:"sales,omitempty"`
	OperatingIncome *float64 `json:"operating_income,omitempty"`
	OrdinaryIncome  *float64 `json:"ordinary_income,omitempty"`
	NetIncome       *float64 `json:"net_income,omitempty"`
}

// Empty reports whether no metric was extracted.
func (f *FilingFinancials) Empty() bool {
	return f.Sales == nil && f.OperatingIncome == nil && f.OrdinaryIncome == nil && f.NetIncome == nil
}

// TrendPoint is one period of the performance trend table built from
// filings, used as context for the AI analysis.
type TrendPoint struct {
	PeriodEnd   string           `json:"period_end"`
	Description string           `json:"description"`
	Financials  FilingFinancials `json:"financials"`
}
