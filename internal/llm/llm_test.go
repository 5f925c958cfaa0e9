package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moriyak/kessanlens/pkg/models"
)

func mockClient(t *testing.T, handler http.Handler) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewGeminiClient("test-key")
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	c.baseURL = srv.URL
	return c
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	c := mockClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("unexpected key %q", r.URL.Query().Get("key"))
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"分析"},{"text":"結果"}]},"finishReason":"STOP"}]}`)
	}))

	text, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "分析結果" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	c := mockClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrNoAPIKey},
		{http.StatusTooManyRequests, ErrRateLimit},
	}
	for _, tt := range tests {
		status := tt.status
		c := mockClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"ERR"}}`, status)
		}))
		_, err := c.Generate(context.Background(), "prompt")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestAnalyzeRetriesRateLimit(t *testing.T) {
	hits := 0
	c := mockClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))

	text, err := Analyze(context.Background(), c, AnalysisInput{CompanyCode: "7203"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if text != "ok" || hits != 2 {
		t.Errorf("text=%q hits=%d", text, hits)
	}
}

func TestAnalyzeDoesNotRetryAuthErrors(t *testing.T) {
	hits := 0
	c := mockClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"bad key","status":"PERMISSION_DENIED"}}`)
	}))

	_, err := Analyze(context.Background(), c, AnalysisInput{CompanyCode: "7203"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if hits != 1 {
		t.Errorf("auth error retried %d times", hits)
	}
}

func fptr(v float64) *float64 { return &v }

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt := BuildAnalysisPrompt(AnalysisInput{
		CompanyCode: "7203",
		KessanText:  strings.Repeat("決算短信の本文です。", 10),
		Trend: []models.TrendPoint{
			{PeriodEnd: "2025-03-31", Description: "有価証券報告書", Financials: models.FilingFinancials{Sales: fptr(500_000_000)}},
		},
	})

	for _, want := range []string{
		"証券コード 7203",
		"① 悪材料の特定",
		"② 隠れた好材料と過去比較",
		"③ 投資妙味の判定（5段階評価）",
		"星の数を明記",
		"2025-03-31",
		"500",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPromptFallbacks(t *testing.T) {
	prompt := BuildAnalysisPrompt(AnalysisInput{CompanyCode: "7203", KessanText: "短い"})
	if !strings.Contains(prompt, missingKessan) {
		t.Error("short report text should fall back to placeholder")
	}
	if !strings.Contains(prompt, missingTrend) {
		t.Error("empty trend should fall back to placeholder")
	}
}
