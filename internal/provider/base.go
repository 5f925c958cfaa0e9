package provider

import (
	"context"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
)

// BaseFetcher provides common functionality for fetcher implementations.
// Embed this in concrete fetchers to get read-through caching and,
// for quota-limited upstreams, rate limiting.
type BaseFetcher struct {
	model       ModelType
	description string
	required    []string
	optional    []string
	cache       *infra.Cache
	ttl         time.Duration
	limiter     *infra.RateLimiter // nil for unthrottled sources
}

// NewBaseFetcher creates a base fetcher with the given cache TTL and no
// rate limit.
func NewBaseFetcher(model ModelType, desc string, required, optional []string, ttl time.Duration) BaseFetcher {
	return BaseFetcher{
		model:       model,
		description: desc,
		required:    required,
		optional:    optional,
		cache:       infra.NewCache(ttl),
		ttl:         ttl,
	}
}

// NewLimitedFetcher creates a base fetcher whose loads are gated by the
// given limiter. Fetchers of one provider share the provider's limiter
// so the upstream quota holds across all of them.
func NewLimitedFetcher(model ModelType, desc string, required, optional []string, ttl time.Duration, limiter *infra.RateLimiter) BaseFetcher {
	b := NewBaseFetcher(model, desc, required, optional, ttl)
	b.limiter = limiter
	return b
}

func (b *BaseFetcher) ModelType() ModelType     { return b.model }
func (b *BaseFetcher) Description() string      { return b.description }
func (b *BaseFetcher) RequiredParams() []string { return b.required }
func (b *BaseFetcher) OptionalParams() []string { return b.optional }

// Load returns the cached value for key or runs loader to fill it,
// acquiring a rate-limit slot first when the fetcher is limited. The
// second return reports whether the value came from cache. Cache misses
// for the same key are coalesced into one loader call.
func (b *BaseFetcher) Load(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, bool, error) {
	if v, ok := b.cache.Get(key); ok {
		return v, true, nil
	}
	v, err := b.cache.GetOrFetch(key, b.ttl, func() (any, error) {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return loader(ctx)
	})
	return v, false, err
}

// FlushCache drops this fetcher's cached entries.
func (b *BaseFetcher) FlushCache() {
	b.cache.Flush()
}

// CacheKey builds a cache key from model type and query parameters.
func CacheKey(model ModelType, params QueryParams) string {
	key := string(model)
	// Deterministic ordering of params for consistent cache keys.
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamProvider {
			continue // Don't include provider in cache key.
		}
		keys = append(keys, k)
	}
	// Simple sort (no import needed for few keys).
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] > keys[j] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	for _, k := range keys {
		key += ":" + k + "=" + params[k]
	}
	return key
}

// BaseProvider provides common functionality for provider implementations.
// Embed this in concrete providers to simplify implementation.
type BaseProvider struct {
	info        ProviderInfo
	fetchers    map[ModelType]Fetcher
	credentials map[string]string
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, creds []ProviderCredential) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Credentials: creds,
		},
		fetchers:    make(map[ModelType]Fetcher),
		credentials: make(map[string]string),
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

func (bp *BaseProvider) Init(credentials map[string]string) error {
	// Validate required credentials.
	for _, cred := range bp.info.Credentials {
		if cred.Required {
			val, ok := credentials[cred.Name]
			if !ok || val == "" {
				return &ErrInvalidCredentials{
					Provider: bp.info.Name,
					Detail:   "missing required credential: " + cred.Name,
				}
			}
		}
	}
	bp.credentials = credentials
	return nil
}

func (bp *BaseProvider) Fetcher(model ModelType) Fetcher {
	return bp.fetchers[model]
}

func (bp *BaseProvider) SupportedModels() []ModelType {
	models := make([]ModelType, 0, len(bp.fetchers))
	for m := range bp.fetchers {
		models = append(models, m)
	}
	return models
}

func (bp *BaseProvider) Ping(ctx context.Context) error {
	return nil // Override in concrete providers.
}

// RegisterFetcher adds a fetcher to this provider.
func (bp *BaseProvider) RegisterFetcher(f Fetcher) {
	model := f.ModelType()
	bp.fetchers[model] = f
	// Update info models list.
	bp.info.Models = bp.SupportedModels()
}

// Credential returns a stored credential value.
func (bp *BaseProvider) Credential(name string) string {
	return bp.credentials[name]
}
