package dashboard

import (
	"math"
	"sort"

	"github.com/moriyak/kessanlens/pkg/models"
)

// Reconcile derives standalone-quarter figures from all disclosed
// fiscal records of one company. J-Quants reports Q2 and Q3 as
// year-to-date totals, so the previous record of the same fiscal year
// is subtracted to recover the quarter. Q1 and full-year figures stand
// on their own. Results are in millions of yen.
func Reconcile(samples []models.FinancialPeriodSample) models.QuarterlyMetrics {
	rows := dedupeLatest(samples)
	if len(rows) == 0 {
		return models.QuarterlyMetrics{}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DisclosureDate.After(rows[j].DisclosureDate)
	})
	current := rows[0]

	// The previous record for a cumulative period is the next older
	// one within the same fiscal year.
	var previous *models.FinancialPeriodSample
	if current.PeriodType.Cumulative() {
		for i := 1; i < len(rows); i++ {
			if rows[i].FiscalYearStart == current.FiscalYearStart {
				previous = &rows[i]
				break
			}
		}
	}

	return models.QuarterlyMetrics{
		Sales:           quarterValue(current.Sales, prevMetric(previous, metricSales), current.PeriodType),
		OperatingIncome: quarterValue(current.OperatingIncome, prevMetric(previous, metricOperating), current.PeriodType),
		OrdinaryIncome:  quarterValue(current.OrdinaryIncome, prevMetric(previous, metricOrdinary), current.PeriodType),
		NetIncome:       quarterValue(current.NetIncome, prevMetric(previous, metricNet), current.PeriodType),
	}
}

// dedupeLatest keeps, per (period type, fiscal year), the record with
// the latest disclosure date. Companies re-file corrections under the
// same period key.
func dedupeLatest(samples []models.FinancialPeriodSample) []models.FinancialPeriodSample {
	type periodKey struct {
		period models.PeriodType
		fyStart string
	}
	latest := make(map[periodKey]int)
	out := make([]models.FinancialPeriodSample, 0, len(samples))

	for _, s := range samples {
		k := periodKey{s.PeriodType, s.FiscalYearStart}
		if i, ok := latest[k]; ok {
			if s.DisclosureDate.After(out[i].DisclosureDate) {
				out[i] = s
			}
			continue
		}
		latest[k] = len(out)
		out = append(out, s)
	}
	return out
}

type metricField int

const (
	metricSales metricField = iota
	metricOperating
	metricOrdinary
	metricNet
)

func prevMetric(prev *models.FinancialPeriodSample, field metricField) *float64 {
	if prev == nil {
		return nil
	}
	switch field {
	case metricSales:
		return prev.Sales
	case metricOperating:
		return prev.OperatingIncome
	case metricOrdinary:
		return prev.OrdinaryIncome
	case metricNet:
		return prev.NetIncome
	}
	return nil
}

// quarterValue converts one metric to a standalone quarter in millions
// of yen. A cumulative period with a usable previous value gets the
// difference; otherwise the cumulative figure is reported as-is.
func quarterValue(cur, prev *float64, period models.PeriodType) *int64 {
	if cur == nil {
		return nil
	}
	v := *cur
	if period.Cumulative() && prev != nil {
		v -= *prev
	}
	millions := int64(math.Round(v / 1e6))
	return &millions
}
