package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry routes model fetches to registered providers. Registration
// order decides fallback order: the first provider registered for a
// model becomes its default, later ones are tried in turn when
// FetchWithFallback is used. The dashboard relies on that to prefer
// the TDnet JSON listing over its RSS mirror and yfinance over the
// kabutan scrape.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	modelIdx  map[ModelType][]string // fallback order per model
	defaults  map[ModelType]string
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		modelIdx:  make(map[ModelType][]string),
		defaults:  make(map[ModelType]string),
	}
}

// Register adds a provider under its Info().Name. Keyed providers must
// have had Init() called first. Registering the same name twice
// replaces the provider but keeps its fallback position.
func (r *Registry) Register(p Provider) error {
	name := p.Info().Name
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = p
	for _, model := range p.SupportedModels() {
		if !containsName(r.modelIdx[model], name) {
			r.modelIdx[model] = append(r.modelIdx[model], name)
		}
		if _, ok := r.defaults[model]; !ok {
			r.defaults[model] = name
		}
	}
	return nil
}

// Unregister removes a provider and drops it from every model's
// fallback chain, promoting the next provider to default where needed.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.providers, name)
	for model, names := range r.modelIdx {
		kept := names[:0]
		for _, n := range names {
			if n != name {
				kept = append(kept, n)
			}
		}
		if len(kept) == 0 {
			delete(r.modelIdx, model)
			delete(r.defaults, model)
			continue
		}
		r.modelIdx[model] = kept
		if r.defaults[model] == name {
			r.defaults[model] = kept[0]
		}
	}
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns the info of every registered provider, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ProvidersFor returns the fallback chain for a model. The first entry
// is the default.
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.modelIdx[model]))
	copy(out, r.modelIdx[model])
	return out
}

func (r *Registry) DefaultProvider(model ModelType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.defaults[model]
	return name, ok
}

// SetDefault pins a provider as the default for a model. The provider
// must exist and carry a fetcher for that model.
func (r *Registry) SetDefault(model ModelType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return &ErrProviderNotFound{Name: name}
	}
	if p.Fetcher(model) == nil {
		return &ErrModelNotSupported{Provider: name, Model: model}
	}
	r.defaults[model] = name
	return nil
}

// Fetch resolves a single provider and runs its fetcher. The provider
// comes from ParamProvider when set, otherwise the model's default.
// Required-parameter validation happens here so fetchers can assume
// their required params are present.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	name := params[ParamProvider]

	r.mu.RLock()
	if name == "" {
		name = r.defaults[model]
	}
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok || name == "" {
		return nil, &ErrProviderNotFound{Name: name}
	}
	fetcher := p.Fetcher(model)
	if fetcher == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	if err := ValidateParams(params, fetcher.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", name, model, err)
	}
	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	return result, nil
}

// FetchWithFallback walks the model's provider chain until one fetch
// succeeds. The preferred provider (ParamProvider or the default) goes
// first; the returned error wraps the last failure.
func (r *Registry) FetchWithFallback(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	result, err := r.Fetch(ctx, model, params)
	if err == nil {
		return result, nil
	}

	preferred := params[ParamProvider]
	for _, name := range r.ProvidersFor(model) {
		if name == preferred {
			continue
		}
		next := make(QueryParams, len(params))
		for k, v := range params {
			next[k] = v
		}
		next[ParamProvider] = name

		if result, err = r.Fetch(ctx, model, next); err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("all providers failed for model %s: %w", model, err)
}

// ModelCoverage maps every routable model to its provider chain.
func (r *Registry) ModelCoverage() map[ModelType][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coverage := make(map[ModelType][]string, len(r.modelIdx))
	for model, names := range r.modelIdx {
		cp := make([]string, len(names))
		copy(cp, names)
		coverage[model] = cp
	}
	return coverage
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

var global = NewRegistry()

// Global returns the process-wide registry.
func Global() *Registry {
	return global
}

// RegisterProvider adds a provider to the global registry.
func RegisterProvider(p Provider) error {
	return global.Register(p)
}
