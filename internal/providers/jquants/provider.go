// Package jquants implements the J-Quants financial data provider.
// J-Quants serves JPX-listed company fundamentals and daily quotes.
//
// Requires an API key from https://jpx-jquants.com. The free plan
// allows 5 calls per minute and serves data with a 12-week delay, so
// every fetcher in this package shares one rate limiter and caches
// aggressively.
package jquants

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
)

const (
	providerName = "jquants"
	credAPIKey   = "api_key"

	// injectedKeyParam carries the API key from the provider into its
	// fetchers without the caller having to supply it.
	injectedKeyParam = "_jquants_api_key"

	freePlanCalls = 5
)

// baseURL is a var so tests can point the provider at a mock server.
var baseURL = "https://api.jquants.com/v1"

// Provider implements provider.Provider for J-Quants.
type Provider struct {
	provider.BaseProvider
	apiKey  string
	limiter *infra.RateLimiter
}

// New creates a new J-Quants provider and registers all fetchers.
// The fetchers share one limiter so the per-key quota holds no matter
// which model is being fetched.
func New() *Provider {
	limiter := infra.NewRateLimiter(freePlanCalls, time.Minute)
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"J-Quants - JPX-listed company fundamentals and daily quotes",
			"https://jpx-jquants.com",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "J-Quants API key from jpx-jquants.com",
					Required:    true,
					EnvVar:      "JQUANTS_API_KEY",
				},
			},
		),
		limiter: limiter,
	}

	p.RegisterFetcher(newSummaryFetcher(limiter))
	p.RegisterFetcher(newBarsFetcher(limiter))

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

// Ping checks connectivity and key validity against the summary
// endpoint. Counts against the quota like any other call.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/fins/summary?code=72030", baseURL)
	body, _, err := infra.DoGet(ctx, url, authHeaders(p.apiKey))
	if err != nil {
		return fmt.Errorf("jquants ping: %w", err)
	}
	body.Close()
	return nil
}

// APIKey returns the stored API key.
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

// apiKeyInjector wraps a Fetcher and injects the J-Quants API key.
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

func authHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + apiKey,
		"Accept":        "application/json",
	}
}

// fetchJQJSON performs an authenticated GET to the J-Quants API and
// decodes JSON.
func fetchJQJSON(ctx context.Context, url, apiKey string, dest any) error {
	body, _, err := infra.DoGet(ctx, url, authHeaders(apiKey))
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read jquants response: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse jquants JSON: %w", err)
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
