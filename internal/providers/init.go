// Package providers initializes and registers all concrete data providers
// with the global provider registry.
package providers

import (
	"os"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/internal/providers/edinet"
	"github.com/moriyak/kessanlens/internal/providers/jquants"
	"github.com/moriyak/kessanlens/internal/providers/kabutan"
	"github.com/moriyak/kessanlens/internal/providers/tdnet"
	"github.com/moriyak/kessanlens/internal/providers/yfinance"
)

// Options carries the API keys for providers that need one. Empty
// fields fall back to the provider's environment variable.
type Options struct {
	JQuantsAPIKey string
	EDINETAPIKey  string
}

// RegisterAll creates and registers all available providers with the
// global registry. Providers that require API keys are only registered
// when a key is available.
func RegisterAll(opts Options) error {
	return RegisterAllTo(provider.Global(), opts)
}

// RegisterAllTo registers all available providers to the given
// registry. Registration order sets the fallback order: the TDnet JSON
// API before its RSS mirror, yfinance before the kabutan scrape.
func RegisterAllTo(reg *provider.Registry, opts Options) error {
	// --- TDnet via Yanoshin JSON API (free, no key) ---
	td := tdnet.New()
	if err := td.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(td); err != nil {
		return err
	}

	// --- TDnet RSS mirror, listing fallback ---
	rss := tdnet.NewRSS()
	if err := rss.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(rss); err != nil {
		return err
	}

	// --- Yahoo Finance (free, no key) ---
	yf := yfinance.New()
	if err := yf.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(yf); err != nil {
		return err
	}

	// --- kabutan.jp scrape, snapshot fallback ---
	kb := kabutan.New()
	if err := kb.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(kb); err != nil {
		return err
	}

	// --- J-Quants (requires API key) ---
	if key := keyOrEnv(opts.JQuantsAPIKey, "JQUANTS_API_KEY"); key != "" {
		jq := jquants.New()
		if err := jq.Init(map[string]string{"api_key": key}); err != nil {
			return err
		}
		if err := reg.Register(jq); err != nil {
			return err
		}
	}

	// --- EDINET (requires API key) ---
	if key := keyOrEnv(opts.EDINETAPIKey, "EDINET_API_KEY"); key != "" {
		ed := edinet.New()
		if err := ed.Init(map[string]string{"api_key": key}); err != nil {
			return err
		}
		if err := reg.Register(ed); err != nil {
			return err
		}
	}

	return nil
}

func keyOrEnv(key, envVar string) string {
	if key != "" {
		return key
	}
	return os.Getenv(envVar)
}
