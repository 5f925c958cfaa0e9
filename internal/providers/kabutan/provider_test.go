package kabutan

import (
	"context"
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

const stockPage = `<!DOCTYPE html>
<html><body>
<div id="stockinfo_i1"><span class="kabuka">2,530円</span></div>
<div id="stockinfo_i3">
<table>
<tr><th>PER</th><td>10.5倍</td></tr>
<tr><th>PBR</th><td>1.23倍</td></tr>
<tr><th>利回り</th><td>2.96％</td></tr>
<tr><th>時価総額</th><td>40兆1,234億円</td></tr>
</table>
</div>
</body></html>`

func TestProviderInfo(t *testing.T) {
	p := New()
	if p.Info().Name != "kabutan" {
		t.Errorf("expected name kabutan, got %s", p.Info().Name)
	}
	if p.Fetcher(provider.ModelMarketSnapshot) == nil {
		t.Error("expected snapshot fetcher")
	}
}

func TestSnapshotFetch(t *testing.T) {
	pointAtMock(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/" || r.URL.Query().Get("code") != "7203" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		fmt.Fprint(w, stockPage)
	}))

	f := newSnapshotFetcher()
	result, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamCode: "7203",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	snap := result.Data.(*models.MarketSnapshot)

	if snap.Price == nil || *snap.Price != 2530 {
		t.Errorf("unexpected price %+v", snap.Price)
	}
	if snap.TrailingPE == nil || *snap.TrailingPE != 10.5 {
		t.Errorf("unexpected PER %+v", snap.TrailingPE)
	}
	if snap.PriceToBook == nil || *snap.PriceToBook != 1.23 {
		t.Errorf("unexpected PBR %+v", snap.PriceToBook)
	}
	if snap.DividendYield == nil || *snap.DividendYield != 2.96 {
		t.Errorf("unexpected yield %+v", snap.DividendYield)
	}
	if snap.MarketCap == nil || *snap.MarketCap != 40.1234e12 {
		t.Errorf("unexpected market cap %+v", snap.MarketCap)
	}
}

func TestSnapshotMissingFields(t *testing.T) {
	pointAtMock(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table><tr><th>PER</th><td>－倍</td></tr></table></body></html>`)
	}))

	f := newSnapshotFetcher()
	result, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamCode: "9999",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	snap := result.Data.(*models.MarketSnapshot)
	if snap.Price != nil || snap.TrailingPE != nil {
		t.Errorf("dash cells should stay absent: %+v", snap)
	}
}

func TestParseYenNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"2,530円", fptr(2530)},
		{"10.5倍", fptr(10.5)},
		{"2.96％", fptr(2.96)},
		{"－", nil},
		{"", nil},
		{"-", nil},
	}
	for _, tt := range tests {
		got := parseYenNumber(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseYenNumber(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseYenNumber(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func TestParseMarketCap(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"40兆1,234億円", 40.1234e12},
		{"5,230億円", 523e9},
		{"3兆円", 3e12},
	}
	for _, tt := range tests {
		got := parseMarketCap(tt.in)
		if got == nil || *got != tt.want {
			t.Errorf("parseMarketCap(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if parseMarketCap("－") != nil {
		t.Error("dash market cap should be nil")
	}
}

func fptr(v float64) *float64 { return &v }
