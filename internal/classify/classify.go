// Package classify assigns disclosure titles to report categories by
// keyword matching. Titles on TDnet are free-form Japanese, so category
// detection is substring-based against curated keyword lists.
package classify

import (
	"strings"

	"github.com/moriyak/kessanlens/pkg/models"
)

// Keyword lists per category. A title naming a supplementary data book
// usually also contains 決算短信, so matching runs most-specific first:
// supplementary, then guidance revisions, then presentation material,
// then the financial statement itself.
var (
	supplementaryKeywords = []string{
		"補足", "補足説明", "補足資料", "補足情報", "参考資料",
		"データブック", "ファクトブック", "ファクトシート",
		"統計資料", "参考データ",
	}
	guidanceKeywords = []string{
		"業績予想の修正", "業績修正", "上方修正", "下方修正",
		"予想の修正", "予想修正", "配当予想の修正", "配当修正",
		"通期業績予想", "業績予想",
		"見通しの修正", "見通し修正",
	}
	explanatoryKeywords = []string{
		"説明資料", "説明会", "決算説明", "プレゼンテーション",
		"プレゼン資料", "IR資料", "IR説明", "投資家向け",
		"アナリスト", "決算概況", "決算ハイライト",
		"業績ハイライト", "サマリー", "スライド",
		"概要資料", "要約", "決算資料",
	}
	statementKeywords = []string{
		"決算短信", "四半期報告", "四半期決算", "中間決算",
		"通期決算", "連結決算", "個別決算",
		"決算概要", "決算発表",
		"Financial Results", "Financial Statements",
		"Earnings", "Annual Results",
		"有価証券報告", "半期報告",
	}
)

// ordered pairs each category with its keywords in precedence order.
var ordered = []struct {
	category models.DisclosureCategory
	keywords []string
}{
	{models.CategorySupplementaryMaterial, supplementaryKeywords},
	{models.CategoryGuidanceRevision, guidanceKeywords},
	{models.CategoryExplanatoryMaterial, explanatoryKeywords},
	{models.CategoryFinancialStatement, statementKeywords},
}

// Classify returns the category of a disclosure title. The first
// keyword list containing a substring of the title wins; titles
// matching nothing are CategoryOther.
func Classify(title string) models.DisclosureCategory {
	for _, group := range ordered {
		for _, kw := range group.keywords {
			if strings.Contains(title, kw) {
				return group.category
			}
		}
	}
	return models.CategoryOther
}

// Policy controls what happens to titles that match no keyword list.
type Policy int

const (
	// DropUnmatched discards uncategorized disclosures. The daily
	// dashboard uses this so non-earnings releases don't clutter rows.
	DropUnmatched Policy = iota

	// KeepOther retains uncategorized disclosures under CategoryOther.
	// The single-company view uses this so nothing a company published
	// goes missing.
	KeepOther
)

// Apply classifies title under the policy. The second return is false
// when the disclosure should be discarded.
func (p Policy) Apply(title string) (models.DisclosureCategory, bool) {
	cat := Classify(title)
	if cat == models.CategoryOther && p == DropUnmatched {
		return cat, false
	}
	return cat, true
}
