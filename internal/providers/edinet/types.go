package edinet

import (
	"strings"
	"time"

	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// docListResponse is the payload of documents.json.
type docListResponse struct {
	Results []docEntry `json:"results"`
}

type docEntry struct {
	DocID          string `json:"docID"`
	SecCode        string `json:"secCode"`
	FormCode       string `json:"formCode"`
	DocDescription string `json:"docDescription"`
	PeriodStart    string `json:"periodStart"`
	PeriodEnd      string `json:"periodEnd"`
	FilerName      string `json:"filerName"`
	SubmitDateTime string `json:"submitDateTime"`
}

// submitLayouts covers the timestamp shapes EDINET has been seen to
// emit for submitDateTime.
var submitLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (e docEntry) toDocument() models.FilingDocument {
	doc := models.FilingDocument{
		DocID:       e.DocID,
		SecCode:     strings.TrimSpace(e.SecCode),
		FormCode:    e.FormCode,
		Description: e.DocDescription,
		PeriodStart: e.PeriodStart,
		PeriodEnd:   e.PeriodEnd,
		FilerName:   e.FilerName,
	}
	for _, layout := range submitLayouts {
		if t, err := time.ParseInLocation(layout, e.SubmitDateTime, utils.JST); err == nil {
			doc.SubmitDateTime = t
			break
		}
	}
	return doc
}

// targetFormCodes are the form codes worth pulling financials from:
// annual securities reports (030000/030001), quarterly reports
// (043000/043001) and semi-annual reports (050000/050001).
var targetFormCodes = map[string]bool{
	"030000": true,
	"030001": true,
	"043000": true,
	"043001": true,
	"050000": true,
	"050001": true,
}

// metricTag pairs one FilingFinancials field with the XBRL element
// local names that can carry it. Candidates are tried in order and the
// first nonzero hit wins; filings differ in which element they use
// depending on industry and taxonomy year.
type metricTag struct {
	label string
	names []string
	set   func(*models.FilingFinancials, float64)
}

var metricTags = []metricTag{
	{
		label: "sales",
		names: []string{"NetSales", "Revenue", "OperatingRevenue1", "NetSalesOfCompletedConstructionContracts"},
		set:   func(f *models.FilingFinancials, v float64) { f.Sales = &v },
	},
	{
		label: "operating_income",
		names: []string{"OperatingIncome", "OperatingProfit"},
		set:   func(f *models.FilingFinancials, v float64) { f.OperatingIncome = &v },
	},
	{
		label: "ordinary_income",
		names: []string{"OrdinaryIncome", "OrdinaryProfit"},
		set:   func(f *models.FilingFinancials, v float64) { f.OrdinaryIncome = &v },
	},
	{
		label: "net_income",
		names: []string{"ProfitLossAttributableToOwnersOfParent", "NetIncome", "ProfitLoss"},
		set:   func(f *models.FilingFinancials, v float64) { f.NetIncome = &v },
	},
}
