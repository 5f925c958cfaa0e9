package dashboard

import (
	"sort"

	"github.com/moriyak/kessanlens/pkg/models"
)

// BuildTrend folds per-filing financials into a period-ordered trend
// table, oldest first. Filings whose archive yielded nothing are left
// out; a trend point with no numbers adds no context.
func BuildTrend(docs []models.FilingDocument, financials map[string]*models.FilingFinancials) []models.TrendPoint {
	points := make([]models.TrendPoint, 0, len(docs))
	for _, doc := range docs {
		fin, ok := financials[doc.DocID]
		if !ok || fin == nil || fin.Empty() {
			continue
		}
		points = append(points, models.TrendPoint{
			PeriodEnd:   doc.PeriodEnd,
			Description: doc.Description,
			Financials:  *fin,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].PeriodEnd < points[j].PeriodEnd
	})
	return points
}
