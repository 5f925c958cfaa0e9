// Package dashboard turns raw disclosure listings into the merged
// per-company view: classified document rows, standalone-quarter
// financials, market snapshots and the CSV export.
package dashboard

import (
	"github.com/moriyak/kessanlens/internal/classify"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// RowOptions controls row building.
type RowOptions struct {
	// Policy decides what happens to titles matching no category.
	Policy classify.Policy

	// DropEmptyRows removes companies whose disclosures all fell
	// outside the tracked categories.
	DropEmptyRows bool
}

// BuildRows folds a disclosure listing into one row per company.
// Codes are normalized to their 4-character form and records without a
// code are skipped. Within a company the first disclosure seen for a
// category keeps its slot; later ones for the same category are
// ignored. Row order follows the first appearance of each company in
// the listing.
func BuildRows(records []models.DisclosureRecord, opts RowOptions) []models.CompanyDisclosureRow {
	index := make(map[string]int)
	rows := make([]models.CompanyDisclosureRow, 0)

	for _, rec := range records {
		code := utils.NormalizeCode(rec.CompanyCode)
		if code == "" {
			continue
		}
		category, keep := opts.Policy.Apply(rec.Title)
		if !keep {
			continue
		}

		i, ok := index[code]
		if !ok {
			i = len(rows)
			index[code] = i
			rows = append(rows, models.CompanyDisclosureRow{
				CompanyCode: code,
				CompanyName: rec.CompanyName,
				Documents:   make(map[models.DisclosureCategory]string),
			})
		}
		if rows[i].Documents[category] == "" {
			rows[i].Documents[category] = rec.DocumentURL
		}
	}

	if !opts.DropEmptyRows {
		return rows
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.HasAnyDocument() {
			kept = append(kept, row)
		}
	}
	return kept
}

// Timeline classifies a company-scoped listing into individual
// disclosures, keeping uncategorized ones under CategoryOther.
func Timeline(records []models.DisclosureRecord) []models.Disclosure {
	out := make([]models.Disclosure, 0, len(records))
	for _, rec := range records {
		cat, _ := classify.KeepOther.Apply(rec.Title)
		out = append(out, models.Disclosure{
			Title:       rec.Title,
			URL:         rec.DocumentURL,
			Category:    cat,
			CompanyName: rec.CompanyName,
			PublishedAt: rec.PublishedAt,
		})
	}
	return out
}
