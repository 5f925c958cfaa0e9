package jquants

import (
	"context"
	"fmt"
	"time"

	"github.com/moriyak/kessanlens/internal/infra"
	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// ---- DailyBars fetcher ----
// Daily OHLCV history for one company. 24h cache: the feed updates
// once per trading day.

type barsFetcher struct {
	provider.BaseFetcher
}

func newBarsFetcher(limiter *infra.RateLimiter) *barsFetcher {
	return &barsFetcher{
		BaseFetcher: provider.NewLimitedFetcher(
			provider.ModelDailyBars,
			"Daily OHLCV bars for one company from J-Quants",
			[]string{provider.ParamCode},
			nil,
			24*time.Hour,
			limiter,
		),
	}
}

func (f *barsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	code := utils.NormalizeCode(params[provider.ParamCode])
	apiKey := params[injectedKeyParam]

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCode: code,
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/prices/daily_quotes?code=%s", baseURL, utils.ToFeedCode(code))
		var resp dailyQuotesResponse
		if err := fetchJQJSON(ctx, url, apiKey, &resp); err != nil {
			return nil, fmt.Errorf("jquants daily bars %s: %w", code, err)
		}

		bars := make([]models.DailyBar, 0, len(resp.DailyQuotes))
		for _, row := range resp.DailyQuotes {
			bars = append(bars, row.toBar())
		}
		return bars, nil
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}
