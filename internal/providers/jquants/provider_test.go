package jquants

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
)

func pointAtMock(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	old := baseURL
	baseURL = srv.URL
	t.Cleanup(func() {
		baseURL = old
		srv.Close()
	})
	return srv
}

func TestProviderInfo(t *testing.T) {
	p := New()
	info := p.Info()
	if info.Name != "jquants" {
		t.Errorf("expected name jquants, got %s", info.Name)
	}
	if len(info.Credentials) != 1 {
		t.Fatalf("expected 1 credential, got %d", len(info.Credentials))
	}
	cred := info.Credentials[0]
	if cred.Name != "api_key" || !cred.Required || cred.EnvVar != "JQUANTS_API_KEY" {
		t.Errorf("unexpected credential %+v", cred)
	}
}

func TestProviderInitMissingKey(t *testing.T) {
	p := New()
	if err := p.Init(map[string]string{}); err == nil {
		t.Error("expected error for missing api_key")
	}
}

func TestProviderInitSuccess(t *testing.T) {
	p := New()
	if err := p.Init(map[string]string{"api_key": "secret"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.APIKey() != "secret" {
		t.Errorf("expected api key secret, got %s", p.APIKey())
	}
}

func TestProviderSupportedModels(t *testing.T) {
	p := New()
	modelSet := make(map[provider.ModelType]bool)
	for _, m := range p.SupportedModels() {
		modelSet[m] = true
	}
	if !modelSet[provider.ModelFinancialSummary] || !modelSet[provider.ModelDailyBars] {
		t.Errorf("missing expected models, got %v", p.SupportedModels())
	}
}

func TestSummaryFetch(t *testing.T) {
	hits := 0
	pointAtMock(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/fins/summary" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("code") != "72030" {
			t.Errorf("expected 5-digit feed code, got %s", r.URL.Query().Get("code"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		fmt.Fprint(w, `{"summary":[
			{"DiscDate":"2026-08-05","CurPerType":"1Q","CurFYSt":"2026-04-01","Sales":"300000000","OP":50000000,"OdP":"-","NP":""},
			{"DiscDate":"2026-05-10","CurPerType":"FY","CurFYSt":"2025-04-01","Sales":"1200000000","OP":"210000000","OdP":"220000000","NP":"150000000"}
		]}`)
	}))

	p := New()
	if err := p.Init(map[string]string{"api_key": "secret"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	f := p.Fetcher(provider.ModelFinancialSummary)

	result, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamCode: "7203",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	samples, ok := result.Data.([]models.FinancialPeriodSample)
	if !ok {
		t.Fatalf("unexpected data type %T", result.Data)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	s := samples[0]
	if s.CompanyCode != "7203" {
		t.Errorf("expected normalized code 7203, got %s", s.CompanyCode)
	}
	if s.PeriodType != models.PeriodQ1 || s.FiscalYearStart != "2026-04-01" {
		t.Errorf("unexpected period fields %+v", s)
	}
	if s.Sales == nil || *s.Sales != 300000000 {
		t.Errorf("string-encoded Sales not parsed: %+v", s.Sales)
	}
	if s.OperatingIncome == nil || *s.OperatingIncome != 50000000 {
		t.Errorf("numeric OP not parsed: %+v", s.OperatingIncome)
	}
	if s.OrdinaryIncome != nil {
		t.Error(`"-" metric should be absent`)
	}
	if s.NetIncome != nil {
		t.Error("empty metric should be absent")
	}

	// Second fetch must come from cache without touching the server.
	result, err = f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamCode: "7203",
	})
	if err != nil {
		t.Fatalf("cached Fetch failed: %v", err)
	}
	if !result.Cached || hits != 1 {
		t.Errorf("expected cached result after 1 upstream hit, cached=%v hits=%d", result.Cached, hits)
	}
}

func TestBarsFetch(t *testing.T) {
	pointAtMock(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices/daily_quotes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"daily_quotes":[
			{"Date":"2026-08-04","Open":2500,"High":2550,"Low":2480,"Close":2530,"Volume":1000000},
			{"Date":"2026-08-05","Open":2530,"High":2600,"Low":2520,"Close":2590,"Volume":1200000}
		]}`)
	}))

	p := New()
	if err := p.Init(map[string]string{"api_key": "secret"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	f := p.Fetcher(provider.ModelDailyBars)

	result, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamCode: "7203",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	bars := result.Data.([]models.DailyBar)
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Close != 2590 || bars[1].Volume != 1200000 {
		t.Errorf("unexpected bar %+v", bars[1])
	}
	if bars[0].Date.Day() != 4 {
		t.Errorf("unexpected bar date %v", bars[0].Date)
	}
}

func TestSummaryFetchServerError(t *testing.T) {
	pointAtMock(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	p := New()
	_ = p.Init(map[string]string{"api_key": "bad"})
	f := p.Fetcher(provider.ModelFinancialSummary)

	_, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamCode: "7203",
	})
	if err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{`123.5`, ptr(123.5)},
		{`"123.5"`, ptr(123.5)},
		{`"-"`, nil},
		{`""`, nil},
		{`null`, nil},
		{`"  42 "`, ptr(42)},
		{`"n/a"`, nil},
	}
	for _, tt := range tests {
		var f flexFloat
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		switch {
		case tt.want == nil && f.Value != nil:
			t.Errorf("flexFloat(%s) = %v, want absent", tt.in, *f.Value)
		case tt.want != nil && (f.Value == nil || *f.Value != *tt.want):
			t.Errorf("flexFloat(%s) = %v, want %v", tt.in, f.Value, *tt.want)
		}
	}
}

func ptr(v float64) *float64 { return &v }
