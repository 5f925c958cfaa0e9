// Package models defines the core data structures used throughout kessanlens.
package models

import "time"

// DisclosureRecord is one raw item from a TDnet disclosure listing.
// Records are immutable once fetched: the pipeline classifies them and
// folds them into rows within a single request cycle.
type DisclosureRecord struct {
	CompanyCode string    `json:"company_code"` // normalized 4-character security code
	CompanyName string    `json:"company_name"`
	Title       string    `json:"title"`
	DocumentURL string    `json:"document_url"`
	PublishedAt time.Time `json:"published_at"` // JST
}

// DisclosureCategory classifies a disclosure title into one of the
// document kinds the dashboard tracks.
type DisclosureCategory string

const (
	CategoryFinancialStatement    DisclosureCategory = "financial_statement"  // 決算短信
	CategorySupplementaryMaterial DisclosureCategory = "supplementary"        // 補足資料
	CategoryExplanatoryMaterial   DisclosureCategory = "explanatory"          // 説明資料
	CategoryGuidanceRevision      DisclosureCategory = "guidance_revision"    // 業績修正
	CategoryOther                 DisclosureCategory = "other"
)

// RowCategories lists the categories that occupy a column slot in a
// dashboard row, in display order. CategoryOther has no slot.
var RowCategories = []DisclosureCategory{
	CategoryFinancialStatement,
	CategoryExplanatoryMaterial,
	CategoryGuidanceRevision,
	CategorySupplementaryMaterial,
}

// Label returns the Japanese display label for a category.
func (c DisclosureCategory) Label() string {
	switch c {
	case CategoryFinancialStatement:
		return "決算短信"
	case CategorySupplementaryMaterial:
		return "補足資料"
	case CategoryExplanatoryMaterial:
		return "説明資料"
	case CategoryGuidanceRevision:
		return "業績修正"
	default:
		return "その他"
	}
}

// CompanyDisclosureRow holds, per company, one document URL slot per
// tracked category. An empty string marks an absent slot.
type CompanyDisclosureRow struct {
	CompanyCode string                        `json:"company_code"`
	CompanyName string                        `json:"company_name"`
	Documents   map[DisclosureCategory]string `json:"documents"`
}

// HasAnyDocument reports whether at least one category slot is populated.
func (r *CompanyDisclosureRow) HasAnyDocument() bool {
	for _, url := range r.Documents {
		if url != "" {
			return true
		}
	}
	return false
}

// Disclosure is a single classified disclosure for the company-scoped
// timeline view.
type Disclosure struct {
	Title       string             `json:"title"`
	URL         string             `json:"url"`
	Category    DisclosureCategory `json:"category"`
	CompanyName string             `json:"company_name"`
	PublishedAt time.Time          `json:"published_at"`
}

// CompanyMatch is one company-name resolution result.
type CompanyMatch struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// MergedRow is the final join of disclosure row, quarterly metrics, and
// market snapshot for one company. Rows keep disclosure-listing order.
type MergedRow struct {
	CompanyDisclosureRow
	Market    MarketSnapshot   `json:"market"`
	Quarterly QuarterlyMetrics `json:"quarterly"`
}
