// Package yfinance implements the Yahoo Finance market data provider.
// It serves real-time valuation snapshots for Tokyo-listed tickers
// (security code + ".T") via the v10 quoteSummary API.
//
// No API key required.
package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
)

const providerName = "yfinance"

// baseURL is a var so tests can point the provider at a mock server.
var baseURL = "https://query1.finance.yahoo.com"

// Yahoo rejects requests without a browser-ish User-Agent.
var yfHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (compatible; kessanlens/1.0)",
	"Accept":     "application/json",
}

// Provider implements provider.Provider for Yahoo Finance.
type Provider struct {
	provider.BaseProvider
}

// New creates a new Yahoo Finance provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Yahoo Finance - real-time prices and valuation ratios",
			"https://finance.yahoo.com",
			nil, // No credentials required
		),
	}

	p.RegisterFetcher(newSnapshotFetcher())

	return p
}

// Ping checks connectivity to Yahoo Finance.
func (p *Provider) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/7203.T?modules=price", baseURL)
	body, _, err := infra.DoGet(ctx, url, yfHeaders)
	if err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	body.Close()
	return nil
}

// --- Shared helpers ---

// fetchYFJSON performs a GET request to Yahoo Finance and decodes JSON.
func fetchYFJSON(ctx context.Context, url string, dest any) error {
	body, _, err := infra.DoGet(ctx, url, yfHeaders)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read yfinance response: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse yfinance JSON: %w", err)
	}
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
