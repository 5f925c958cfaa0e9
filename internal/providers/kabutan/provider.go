// Package kabutan implements a market data provider scraped from
// kabutan.jp stock pages. It is the fallback snapshot source when
// Yahoo Finance has no usable data for a Tokyo-listed code.
//
// No API key required. Scraping only, so keep the request rate low.
package kabutan

import (
	"context"
	"fmt"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
)

const providerName = "kabutan"

// baseURL is a var so tests can point the provider at a mock server.
var baseURL = "https://kabutan.jp"

var htmlHeaders = map[string]string{
	"Accept":     "text/html",
	"User-Agent": "Mozilla/5.0 (compatible; kessanlens/1.0)",
}

// Provider implements provider.Provider for kabutan.jp.
type Provider struct {
	provider.BaseProvider
}

// New creates a new kabutan provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"kabutan.jp - scraped price and valuation ratios (fallback)",
			"https://kabutan.jp",
			nil, // No credentials required
		),
	}

	p.RegisterFetcher(newSnapshotFetcher())

	return p
}

// Ping checks connectivity to kabutan.jp.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, fmt.Sprintf("%s/stock/?code=7203", baseURL), htmlHeaders)
	if err != nil {
		return fmt.Errorf("kabutan ping: %w", err)
	}
	body.Close()
	return nil
}

func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}

func newCachedResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
		Cached:    true,
	}
}
