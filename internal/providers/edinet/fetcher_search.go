package edinet

import (
	"context"
	"strconv"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// ---- FilingSearch fetcher ----
// EDINET has no per-company search endpoint, so the fetcher walks the
// per-date document index backwards from today and collects filings
// whose security code matches. Scanning every other weekday keeps the
// request count manageable while still catching multi-day filing
// windows; the walk stops early once enough filings are collected for
// a trend.

const (
	defaultYearsBack = 3
	maxFilings       = 15
	scanStrideDays   = 2
)

type searchFetcher struct {
	provider.BaseFetcher
	limiter *infra.RateLimiter
}

func newSearchFetcher() *searchFetcher {
	return &searchFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelFilingSearch,
			"Securities report filings for one company from the EDINET index",
			[]string{provider.ParamCode},
			[]string{provider.ParamYearsBack},
			time.Hour,
		),
		// The index walk issues hundreds of requests per search, so
		// throttle independently of the cache.
		limiter: infra.NewRateLimiter(5, time.Second),
	}
}

func (f *searchFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	code := utils.NormalizeCode(params[provider.ParamCode])
	apiKey := params[injectedKeyParam]

	yearsBack := defaultYearsBack
	if s := params[provider.ParamYearsBack]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			yearsBack = n
		}
	}

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCode:      code,
		provider.ParamYearsBack: strconv.Itoa(yearsBack),
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		return f.scanIndex(ctx, code, yearsBack, apiKey)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}

// scanIndex walks the document index from today back over yearsBack
// years. Days that fail to fetch or parse are skipped; the scan only
// errors when the context is cancelled.
func (f *searchFetcher) scanIndex(ctx context.Context, code string, yearsBack int, apiKey string) ([]models.FilingDocument, error) {
	feedCode := utils.ToFeedCode(code)
	today := utils.NowJST()
	totalDays := yearsBack * 365

	docs := make([]models.FilingDocument, 0, maxFilings)
	seen := make(map[string]bool)

	for daysAgo := 0; daysAgo < totalDays; daysAgo += scanStrideDays {
		day := today.AddDate(0, 0, -daysAgo)
		if !utils.IsWeekday(day) {
			continue
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := fetchDocList(ctx, utils.ISODate(day), apiKey)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		for _, entry := range resp.Results {
			if entry.SecCode != feedCode || !targetFormCodes[entry.FormCode] {
				continue
			}
			if entry.DocID == "" || seen[entry.DocID] {
				continue
			}
			seen[entry.DocID] = true
			docs = append(docs, entry.toDocument())
		}

		if len(docs) >= maxFilings {
			break
		}
	}

	return docs, nil
}
