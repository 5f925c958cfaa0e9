// Package tdnet implements the TDnet timely-disclosure provider,
// backed by the Yanoshin web API mirror of the TDnet feed.
//
// No API key required. The list endpoints are keyed by date (YYYYMMDD)
// and serve up to 500 entries per day.
// Docs: https://webapi.yanoshin.jp/tdnet/
package tdnet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/utils"
)

const providerName = "tdnet"

// baseURL is a var so tests can point the provider at a mock server.
var baseURL = "https://webapi.yanoshin.jp/webapi"

// Provider implements provider.Provider for the TDnet disclosure feed.
type Provider struct {
	provider.BaseProvider
}

// New creates a new TDnet provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"TDnet timely disclosures via the Yanoshin web API",
			"https://webapi.yanoshin.jp",
			nil, // No credentials required
		),
	}

	p.RegisterFetcher(newListingFetcher())
	p.RegisterFetcher(newCompanyFetcher())

	return p
}

// Ping checks connectivity to the disclosure feed.
func (p *Provider) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/tdnet/list/%s.json2?limit=1", baseURL, utils.CompactDate(utils.NowJST()))
	body, _, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("tdnet ping: %w", err)
	}
	body.Close()
	return nil
}

// --- Shared helpers ---

// fetchListing retrieves and decodes one day's disclosure list.
func fetchListing(ctx context.Context, url string) (*listingResponse, error) {
	body, _, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read tdnet response: %w", err)
	}

	var resp listingResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse tdnet JSON: %w", err)
	}
	return &resp, nil
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
