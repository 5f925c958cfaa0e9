package provider

// ModelType represents a standard data model type. Each ModelType maps
// to a specific data structure in pkg/models/.
type ModelType string

// --- Disclosures ---
const (
	ModelDisclosureListing  ModelType = "DisclosureListing"  // []models.DisclosureRecord for one date
	ModelCompanyDisclosures ModelType = "CompanyDisclosures" // []models.DisclosureRecord over a trailing window, one company
)

// --- Financials / Prices ---
const (
	ModelFinancialSummary ModelType = "FinancialSummary" // []models.FinancialPeriodSample
	ModelDailyBars        ModelType = "DailyBars"        // []models.DailyBar
	ModelMarketSnapshot   ModelType = "MarketSnapshot"   // *models.MarketSnapshot
)

// --- Regulatory filings ---
const (
	ModelFilingSearch  ModelType = "FilingSearch"  // []models.FilingDocument
	ModelFilingContent ModelType = "FilingContent" // *models.FilingFinancials
)

// AllModels lists every model type the registry can route, used by the
// status command to print provider coverage.
var AllModels = []ModelType{
	ModelDisclosureListing,
	ModelCompanyDisclosures,
	ModelFinancialSummary,
	ModelDailyBars,
	ModelMarketSnapshot,
	ModelFilingSearch,
	ModelFilingContent,
}
