package kabutan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// ---- MarketSnapshot fetcher (scraped) ----
// Parses the stock page's header block: current price plus the
// PER / PBR / 利回り / 時価総額 indicator cells.

type snapshotFetcher struct {
	provider.BaseFetcher
	limiter *infra.RateLimiter
}

func newSnapshotFetcher() *snapshotFetcher {
	return &snapshotFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelMarketSnapshot,
			"Price and valuation ratios scraped from kabutan.jp",
			[]string{provider.ParamCode},
			nil,
			15*time.Minute,
		),
		// Polite scraping pace; kabutan publishes no API quota.
		limiter: infra.NewRateLimiter(1, time.Second),
	}
}

func (f *snapshotFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	code := utils.NormalizeCode(params[provider.ParamCode])

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCode: code,
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/stock/?code=%s", baseURL, code)
		body, _, err := infra.DoGet(ctx, url, htmlHeaders)
		if err != nil {
			return nil, fmt.Errorf("kabutan snapshot %s: %w", code, err)
		}
		defer body.Close()

		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return nil, fmt.Errorf("parse kabutan HTML: %w", err)
		}

		return parseSnapshot(code, doc), nil
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}

// parseSnapshot extracts the per-field-optional snapshot from a stock
// page document.
func parseSnapshot(code string, doc *goquery.Document) *models.MarketSnapshot {
	snap := &models.MarketSnapshot{
		CompanyCode: code,
		FetchedAt:   time.Now(),
	}

	snap.Price = parseYenNumber(doc.Find(".kabuka").First().Text())

	// The indicator tables pair a header cell with a value cell.
	doc.Find("table th").Each(func(_ int, th *goquery.Selection) {
		label := strings.TrimSpace(th.Text())
		value := strings.TrimSpace(th.Next().Text())
		switch {
		case strings.Contains(label, "PER"):
			snap.TrailingPE = parseYenNumber(value)
		case strings.Contains(label, "PBR"):
			snap.PriceToBook = parseYenNumber(value)
		case strings.Contains(label, "利回り"):
			snap.DividendYield = parseYenNumber(value)
		case strings.Contains(label, "時価総額"):
			snap.MarketCap = parseMarketCap(value)
		}
	})

	return snap
}

// parseYenNumber parses a display value like "2,530円", "10.5倍", or
// "2.96％". Dashes and empty cells yield nil.
func parseYenNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"円", "倍", "％", "%"} {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "－" || s == "―" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseMarketCap parses a cap like "40兆1,234億円" or "5,230億円"
// into yen.
func parseMarketCap(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimSuffix(s, "円")
	if s == "" || s == "-" || s == "－" {
		return nil
	}

	var total float64
	matched := false
	if i := strings.Index(s, "兆"); i >= 0 {
		if v, err := strconv.ParseFloat(s[:i], 64); err == nil {
			total += v * 1e12
			matched = true
		}
		s = s[i+len("兆"):]
	}
	if i := strings.Index(s, "億"); i >= 0 {
		if v, err := strconv.ParseFloat(s[:i], 64); err == nil {
			total += v * 1e8
			matched = true
		}
	}
	if !matched {
		// Plain number, already in yen.
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return &v
		}
		return nil
	}
	return &total
}
