// Package provider defines the upstream abstraction: a Provider hosts
// one Fetcher per model type, and a Registry routes requests to
// providers with default-then-fallback ordering.
package provider

import (
	"context"
	"fmt"
	"time"
)

// ProviderCredential describes a required credential for a provider.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "J-Quants API key from jpx-jquants.com"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // environment variable name, e.g., "JQUANTS_API_KEY"
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"`        // e.g., "tdnet", "jquants"
	Description string               `json:"description"` // human-readable description
	Website     string               `json:"website"`     // e.g., "https://webapi.yanoshin.jp"
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"` // supported standard models
}

// Provider is one upstream data source (TDnet, J-Quants, EDINET, ...)
// exposing a Fetcher per model type it covers.
type Provider interface {
	Info() ProviderInfo

	// Init stores credentials before registration. Keyed providers
	// return ErrInvalidCredentials when a required key is absent.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for model, or nil when unsupported.
	Fetcher(model ModelType) Fetcher

	SupportedModels() []ModelType

	// Ping checks upstream connectivity and, for keyed providers, that
	// the stored credentials work.
	Ping(ctx context.Context) error
}

// QueryParams is the generic query parameter map passed to fetchers.
// Common keys include:
//   - "code"       : 4-character security code (e.g., "7203")
//   - "date"       : listing date, YYYYMMDD
//   - "limit"      : max results
//   - "window"     : trailing window size in days for company-scoped fetches
//   - "query"      : free-text company-name query
//   - "doc_id"     : EDINET document ID
//   - "years_back" : filing-search lookback in years
//
// Each fetcher defines which keys it requires/supports.
type QueryParams map[string]string

// QueryParamKey constants for commonly used query parameters.
const (
	ParamCode      = "code"
	ParamDate      = "date"
	ParamLimit     = "limit"
	ParamWindow    = "window"
	ParamQuery     = "query"
	ParamDocID     = "doc_id"
	ParamYearsBack = "years_back"
	ParamProvider  = "provider"
)

// FetchResult wraps a fetcher result with metadata.
type FetchResult struct {
	Provider  string    `json:"provider"`   // which provider returned this data
	Model     ModelType `json:"model"`      // the standard model type
	Data      any       `json:"data"`       // the fetched data (typed per model)
	FetchedAt time.Time `json:"fetched_at"` // when the data was fetched
	Cached    bool      `json:"cached"`     // whether this came from cache
}

// Fetcher retrieves one model type from one upstream.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string
	OptionalParams() []string

	// Fetch runs the request. Data is typed per model:
	// []models.DisclosureRecord for disclosure models,
	// []models.FinancialPeriodSample for the financial summary,
	// *models.MarketSnapshot for snapshots, and so on.
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
