package models

import "time"

// MarketSnapshot holds per-company real-time valuation fields. Every
// field is optional; nil means the source had no usable value, which is
// distinct from a reported zero.
type MarketSnapshot struct {
	CompanyCode   string    `json:"company_code"`
	Price         *float64  `json:"price,omitempty"`
	MarketCap     *float64  `json:"market_cap,omitempty"`
	TrailingPE    *float64  `json:"trailing_pe,omitempty"`
	PriceToBook   *float64  `json:"price_to_book,omitempty"`
	DividendYield *float64  `json:"dividend_yield,omitempty"` // percent, 2-decimal
	FetchedAt     time.Time `json:"fetched_at"`
}
