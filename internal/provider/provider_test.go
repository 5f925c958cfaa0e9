package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// mockFetcher implements the Fetcher interface for testing.
type mockFetcher struct {
	BaseFetcher
	fetchFn func(ctx context.Context, params QueryParams) (*FetchResult, error)
}

func newMockFetcher(model ModelType, required []string) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: NewBaseFetcher(model, "mock fetcher for "+string(model), required, nil, time.Minute),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, params)
	}
	return &FetchResult{
		Data:      "mock-data",
		FetchedAt: time.Now(),
	}, nil
}

// mockProvider implements the Provider interface for testing.
type mockProvider struct {
	BaseProvider
}

func newMockProvider(name string, models ...ModelType) *mockProvider {
	mp := &mockProvider{
		BaseProvider: NewBaseProvider(name, "Mock "+name, "https://example.com", nil),
	}
	for _, m := range models {
		mp.RegisterFetcher(newMockFetcher(m, []string{ParamCode}))
	}
	return mp
}

// --- Registry Tests ---

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := newMockProvider("test-provider", ModelDisclosureListing, ModelFinancialSummary)

	if err := p.Init(nil); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get("test-provider")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Info().Name != "test-provider" {
		t.Errorf("expected name test-provider, got %s", got.Info().Name)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nonexistent")
	if err == nil {
		t.Fatal("expected error for nonexistent provider")
	}
	var notFound *ErrProviderNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrProviderNotFound, got %T", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("beta", ModelDisclosureListing))
	_ = reg.Register(newMockProvider("alpha", ModelFinancialSummary))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(list))
	}
	// Should be sorted alphabetically.
	if list[0].Name != "alpha" {
		t.Errorf("expected first provider 'alpha', got %s", list[0].Name)
	}
	if list[1].Name != "beta" {
		t.Errorf("expected second provider 'beta', got %s", list[1].Name)
	}
}

func TestRegistryProvidersFor(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelDisclosureListing, ModelMarketSnapshot))
	_ = reg.Register(newMockProvider("p2", ModelDisclosureListing))
	_ = reg.Register(newMockProvider("p3", ModelMarketSnapshot))

	provs := reg.ProvidersFor(ModelDisclosureListing)
	if len(provs) != 2 {
		t.Fatalf("expected 2 providers for DisclosureListing, got %d", len(provs))
	}

	provs = reg.ProvidersFor(ModelMarketSnapshot)
	if len(provs) != 2 {
		t.Fatalf("expected 2 providers for MarketSnapshot, got %d", len(provs))
	}

	provs = reg.ProvidersFor(ModelFilingSearch)
	if len(provs) != 0 {
		t.Fatalf("expected 0 providers for FilingSearch, got %d", len(provs))
	}
}

func TestRegistrySetDefault(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelDisclosureListing))
	_ = reg.Register(newMockProvider("p2", ModelDisclosureListing))

	// Default should be p1 (first registered).
	def, ok := reg.DefaultProvider(ModelDisclosureListing)
	if !ok || def != "p1" {
		t.Errorf("expected default p1, got %s (ok=%v)", def, ok)
	}

	// Change default.
	if err := reg.SetDefault(ModelDisclosureListing, "p2"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	def, ok = reg.DefaultProvider(ModelDisclosureListing)
	if !ok || def != "p2" {
		t.Errorf("expected default p2, got %s (ok=%v)", def, ok)
	}

	// Set default to non-existent provider.
	if err := reg.SetDefault(ModelDisclosureListing, "nope"); err == nil {
		t.Error("expected error setting default to non-existent provider")
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelDisclosureListing))
	_ = reg.Register(newMockProvider("p2", ModelDisclosureListing))

	reg.Unregister("p1")

	_, err := reg.Get("p1")
	if err == nil {
		t.Error("expected error after unregister")
	}

	provs := reg.ProvidersFor(ModelDisclosureListing)
	if len(provs) != 1 || provs[0] != "p2" {
		t.Errorf("expected only p2 after unregister, got %v", provs)
	}

	// Default should have shifted to p2.
	def, _ := reg.DefaultProvider(ModelDisclosureListing)
	if def != "p2" {
		t.Errorf("expected default to shift to p2, got %s", def)
	}
}

func TestRegistryFetch(t *testing.T) {
	reg := NewRegistry()
	mp := newMockProvider("test", ModelDisclosureListing)
	_ = reg.Register(mp)

	ctx := context.Background()
	params := QueryParams{ParamCode: "7203"}

	result, err := reg.Fetch(ctx, ModelDisclosureListing, params)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Provider != "test" {
		t.Errorf("expected provider 'test', got %s", result.Provider)
	}
	if result.Model != ModelDisclosureListing {
		t.Errorf("expected model DisclosureListing, got %s", result.Model)
	}
	if result.Data != "mock-data" {
		t.Errorf("unexpected data: %v", result.Data)
	}
}

func TestRegistryFetchMissingParam(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("test", ModelDisclosureListing))

	ctx := context.Background()
	params := QueryParams{} // Missing required "code" param.

	_, err := reg.Fetch(ctx, ModelDisclosureListing, params)
	if err == nil {
		t.Fatal("expected error for missing param")
	}
	var missing *ErrMissingParam
	if !errors.As(err, &missing) {
		t.Errorf("expected ErrMissingParam, got %T: %v", err, err)
	}
}

func TestRegistryFetchUnsupportedModel(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("test", ModelDisclosureListing))

	ctx := context.Background()
	params := QueryParams{ParamCode: "7203"}

	_, err := reg.Fetch(ctx, ModelFilingSearch, params)
	if err == nil {
		t.Fatal("expected error for unsupported model")
	}
}

func TestRegistryFetchWithProviderOverride(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelDisclosureListing))

	mp2 := newMockProvider("p2", ModelDisclosureListing)
	f := newMockFetcher(ModelDisclosureListing, []string{ParamCode})
	f.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return &FetchResult{Data: "from-p2"}, nil
	}
	mp2.BaseProvider.fetchers[ModelDisclosureListing] = f
	_ = reg.Register(mp2)

	ctx := context.Background()
	params := QueryParams{
		ParamCode:     "7203",
		ParamProvider: "p2", // Force provider p2.
	}

	result, err := reg.Fetch(ctx, ModelDisclosureListing, params)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Data != "from-p2" {
		t.Errorf("expected data from p2, got %v", result.Data)
	}
}

func TestRegistryFetchWithFallback(t *testing.T) {
	reg := NewRegistry()

	// p1 always fails.
	mp1 := newMockProvider("p1", ModelDisclosureListing)
	f1 := newMockFetcher(ModelDisclosureListing, []string{ParamCode})
	f1.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return nil, &ErrModelNotSupported{Provider: "p1", Model: ModelDisclosureListing}
	}
	mp1.BaseProvider.fetchers[ModelDisclosureListing] = f1
	_ = reg.Register(mp1)

	// p2 succeeds.
	mp2 := newMockProvider("p2", ModelDisclosureListing)
	f2 := newMockFetcher(ModelDisclosureListing, []string{ParamCode})
	f2.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return &FetchResult{Data: "fallback-data"}, nil
	}
	mp2.BaseProvider.fetchers[ModelDisclosureListing] = f2
	_ = reg.Register(mp2)

	ctx := context.Background()
	params := QueryParams{ParamCode: "7203"}

	result, err := reg.FetchWithFallback(ctx, ModelDisclosureListing, params)
	if err != nil {
		t.Fatalf("FetchWithFallback failed: %v", err)
	}
	if result.Data != "fallback-data" {
		t.Errorf("expected fallback-data, got %v", result.Data)
	}
}

func TestModelCoverage(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelDisclosureListing, ModelMarketSnapshot))
	_ = reg.Register(newMockProvider("p2", ModelDisclosureListing, ModelFilingSearch))

	coverage := reg.ModelCoverage()

	if len(coverage[ModelDisclosureListing]) != 2 {
		t.Errorf("expected 2 providers for DisclosureListing, got %d", len(coverage[ModelDisclosureListing]))
	}
	if len(coverage[ModelMarketSnapshot]) != 1 {
		t.Errorf("expected 1 provider for MarketSnapshot, got %d", len(coverage[ModelMarketSnapshot]))
	}
	if len(coverage[ModelFilingSearch]) != 1 {
		t.Errorf("expected 1 provider for FilingSearch, got %d", len(coverage[ModelFilingSearch]))
	}
}

// --- Base Provider Tests ---

func TestBaseProviderInit(t *testing.T) {
	creds := []ProviderCredential{
		{Name: "api_key", Required: true, EnvVar: "TEST_KEY"},
	}
	bp := NewBaseProvider("test", "desc", "https://test.com", creds)

	// Missing required credential.
	if err := bp.Init(map[string]string{}); err == nil {
		t.Error("expected error for missing required credential")
	}

	// With credential.
	if err := bp.Init(map[string]string{"api_key": "secret123"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if bp.Credential("api_key") != "secret123" {
		t.Error("credential not stored")
	}
}

func TestBaseProviderRegisterFetcher(t *testing.T) {
	bp := NewBaseProvider("test", "desc", "https://test.com", nil)
	f := newMockFetcher(ModelDisclosureListing, nil)
	bp.RegisterFetcher(f)

	if bp.Fetcher(ModelDisclosureListing) == nil {
		t.Error("fetcher not registered")
	}
	if bp.Fetcher(ModelMarketSnapshot) != nil {
		t.Error("fetcher should be nil for unregistered model")
	}
	if len(bp.SupportedModels()) != 1 {
		t.Errorf("expected 1 supported model, got %d", len(bp.SupportedModels()))
	}
}

// --- BaseFetcher Load Tests ---

func TestBaseFetcherLoad(t *testing.T) {
	b := NewBaseFetcher(ModelDisclosureListing, "test", nil, nil, time.Minute)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return "payload", nil
	}

	v, cached, err := b.Load(ctx, "k", loader)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cached {
		t.Error("first load should not be cached")
	}
	if v != "payload" {
		t.Errorf("unexpected value: %v", v)
	}

	v, cached, err = b.Load(ctx, "k", loader)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if !cached {
		t.Error("second load should hit cache")
	}
	if v != "payload" || loads != 1 {
		t.Errorf("expected 1 loader call with cached payload, got %d calls, v=%v", loads, v)
	}
}

func TestBaseFetcherLoadError(t *testing.T) {
	b := NewBaseFetcher(ModelDisclosureListing, "test", nil, nil, time.Minute)
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	_, _, err := b.Load(ctx, "k", func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	// Errors must not be cached; the next load retries the loader.
	v, cached, err := b.Load(ctx, "k", func(ctx context.Context) (any, error) {
		return "recovered", nil
	})
	if err != nil || cached || v != "recovered" {
		t.Errorf("expected retry after error, got v=%v cached=%v err=%v", v, cached, err)
	}
}

// --- CacheKey Tests ---

func TestCacheKey(t *testing.T) {
	params := QueryParams{
		ParamCode:     "7203",
		ParamDate:     "20250815",
		ParamProvider: "tdnet", // Should be excluded.
	}

	key := CacheKey(ModelDisclosureListing, params)

	if key == "" {
		t.Error("cache key should not be empty")
	}
	// Provider should not be in key.
	if strings.Contains(key, "tdnet") {
		t.Error("cache key should not contain provider name")
	}
	// Should contain model and params.
	if !strings.Contains(key, "DisclosureListing") {
		t.Error("cache key should contain model type")
	}
	if !strings.Contains(key, "7203") {
		t.Error("cache key should contain code")
	}

	// Param order must not matter.
	again := CacheKey(ModelDisclosureListing, QueryParams{
		ParamDate: "20250815",
		ParamCode: "7203",
	})
	if key != again {
		t.Errorf("cache key should be order-independent: %q vs %q", key, again)
	}
}

// --- ValidateParams Tests ---

func TestValidateParams(t *testing.T) {
	err := ValidateParams(QueryParams{ParamCode: "7203"}, []string{ParamCode})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err = ValidateParams(QueryParams{}, []string{ParamCode})
	if err == nil {
		t.Error("expected error for missing param")
	}

	err = ValidateParams(QueryParams{ParamCode: ""}, []string{ParamCode})
	if err == nil {
		t.Error("expected error for empty param")
	}
}

// --- AllModels Tests ---

func TestAllModels(t *testing.T) {
	seen := make(map[ModelType]bool)
	for _, m := range AllModels {
		if seen[m] {
			t.Errorf("duplicate model type: %s", m)
		}
		seen[m] = true
	}
	if !seen[ModelDisclosureListing] || !seen[ModelFilingContent] {
		t.Error("AllModels missing expected model types")
	}
}

// --- Global Registry Tests ---

func TestGlobalRegistry(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("Global() returned nil")
	}
}
