// Package edinet implements the EDINET regulatory filing provider.
// EDINET is the FSA's electronic disclosure system for securities
// reports. The v2 API serves a per-date document index and per-document
// archives (CSV or XBRL) keyed by a subscription key.
//
// Requires an API key from https://api.edinet-fsa.go.jp.
package edinet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/utils"
)

const (
	providerName = "edinet"
	credAPIKey   = "api_key"

	// injectedKeyParam carries the API key from the provider into its
	// fetchers without the caller having to supply it.
	injectedKeyParam = "_edinet_api_key"
)

// baseURL is a var so tests can point the provider at a mock server.
var baseURL = "https://api.edinet-fsa.go.jp/api/v2"

// Provider implements provider.Provider for EDINET.
type Provider struct {
	provider.BaseProvider
	apiKey string
}

// New creates a new EDINET provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"EDINET - FSA electronic disclosure for securities reports",
			"https://disclosure2.edinet-fsa.go.jp",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "EDINET API subscription key",
					Required:    true,
					EnvVar:      "EDINET_API_KEY",
				},
			},
		),
	}

	p.RegisterFetcher(newSearchFetcher())
	p.RegisterFetcher(newContentFetcher())

	return p
}

// Init stores the API key.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.apiKey = credentials[credAPIKey]
	return nil
}

// Ping checks connectivity and key validity against today's document
// index.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := fetchDocList(ctx, utils.ISODate(utils.NowJST()), p.apiKey)
	if err != nil {
		return fmt.Errorf("edinet ping: %w", err)
	}
	return nil
}

// APIKey returns the stored subscription key.
func (p *Provider) APIKey() string {
	return p.apiKey
}

// Fetcher overrides BaseProvider.Fetcher to return a wrapper that
// auto-injects the API key into query params before delegating.
func (p *Provider) Fetcher(model provider.ModelType) provider.Fetcher {
	inner := p.BaseProvider.Fetcher(model)
	if inner == nil {
		return nil
	}
	return &apiKeyInjector{inner: inner, apiKey: &p.apiKey}
}

// apiKeyInjector wraps a Fetcher and injects the EDINET API key.
type apiKeyInjector struct {
	inner  provider.Fetcher
	apiKey *string
}

func (w *apiKeyInjector) ModelType() provider.ModelType { return w.inner.ModelType() }
func (w *apiKeyInjector) Description() string           { return w.inner.Description() }
func (w *apiKeyInjector) RequiredParams() []string      { return w.inner.RequiredParams() }
func (w *apiKeyInjector) OptionalParams() []string      { return w.inner.OptionalParams() }

func (w *apiKeyInjector) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	enriched := make(provider.QueryParams, len(params)+1)
	for k, v := range params {
		enriched[k] = v
	}
	enriched[injectedKeyParam] = *w.apiKey
	return w.inner.Fetch(ctx, enriched)
}

func (w *apiKeyInjector) FlushCache() {
	if f, ok := w.inner.(interface{ FlushCache() }); ok {
		f.FlushCache()
	}
}

// --- Shared helpers ---

// fetchDocList pulls the document index for one calendar day. type=2
// restricts the index to filed documents with submitted data.
func fetchDocList(ctx context.Context, date, apiKey string) (*docListResponse, error) {
	u := fmt.Sprintf("%s/documents.json?date=%s&type=2&Subscription-Key=%s",
		baseURL, url.QueryEscape(date), url.QueryEscape(apiKey))
	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read edinet response: %w", err)
	}

	var resp docListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse edinet document list: %w", err)
	}
	return &resp, nil
}

// fetchArchive downloads one document archive. docType selects the
// format: 4 for CSV, 1 for XBRL.
func fetchArchive(ctx context.Context, docID string, docType int, apiKey string) ([]byte, error) {
	u := fmt.Sprintf("%s/documents/%s?type=%d&Subscription-Key=%s",
		baseURL, url.PathEscape(docID), docType, url.QueryEscape(apiKey))
	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
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
