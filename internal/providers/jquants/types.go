package jquants

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// flexFloat decodes a metric that the API serves as a number, a
// numeric string, or an absent marker ("", "-", null). Value is nil
// when no usable number was present.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" || str == "-" {
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			// Treat unparseable strings as absent, not fatal.
			return nil
		}
		f.Value = &v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// finSummaryResponse is the /fins/summary envelope.
type finSummaryResponse struct {
	Summary []finSummaryRow `json:"summary"`
}

// finSummaryRow is one disclosed fiscal record. Metric amounts are in
// yen.
type finSummaryRow struct {
	DiscDate   string    `json:"DiscDate"`  // disclosure date, YYYY-MM-DD
	CurPerType string    `json:"CurPerType"` // 1Q / 2Q / 3Q / FY
	CurFYSt    string    `json:"CurFYSt"`   // fiscal year start, YYYY-MM-DD
	Sales      flexFloat `json:"Sales"`
	OP         flexFloat `json:"OP"`
	OdP        flexFloat `json:"OdP"`
	NP         flexFloat `json:"NP"`
}

func (r finSummaryRow) toSample(code string) models.FinancialPeriodSample {
	return models.FinancialPeriodSample{
		CompanyCode:     code,
		PeriodType:      models.PeriodType(r.CurPerType),
		FiscalYearStart: r.CurFYSt,
		DisclosureDate:  parseJQDate(r.DiscDate),
		Sales:           r.Sales.Value,
		OperatingIncome: r.OP.Value,
		OrdinaryIncome:  r.OdP.Value,
		NetIncome:       r.NP.Value,
	}
}

// dailyQuotesResponse is the /prices/daily_quotes envelope.
type dailyQuotesResponse struct {
	DailyQuotes []dailyQuoteRow `json:"daily_quotes"`
}

type dailyQuoteRow struct {
	Date   string    `json:"Date"`
	Open   flexFloat `json:"Open"`
	High   flexFloat `json:"High"`
	Low    flexFloat `json:"Low"`
	Close  flexFloat `json:"Close"`
	Volume flexFloat `json:"Volume"`
}

func (r dailyQuoteRow) toBar() models.DailyBar {
	bar := models.DailyBar{Date: parseJQDate(r.Date)}
	if r.Open.Value != nil {
		bar.Open = *r.Open.Value
	}
	if r.High.Value != nil {
		bar.High = *r.High.Value
	}
	if r.Low.Value != nil {
		bar.Low = *r.Low.Value
	}
	if r.Close.Value != nil {
		bar.Close = *r.Close.Value
	}
	if r.Volume.Value != nil {
		bar.Volume = *r.Volume.Value
	}
	return bar
}

func parseJQDate(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), utils.JST)
	if err != nil {
		return time.Time{}
	}
	return t
}
