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

// ---- FinancialSummary fetcher ----
// All disclosed fiscal records for one company. One hour of cache:
// the free plan's data is weeks delayed, re-fetching sooner buys
// nothing but quota.

type summaryFetcher struct {
	provider.BaseFetcher
}

func newSummaryFetcher(limiter *infra.RateLimiter) *summaryFetcher {
	return &summaryFetcher{
		BaseFetcher: provider.NewLimitedFetcher(
			provider.ModelFinancialSummary,
			"Disclosed fiscal summaries for one company from J-Quants",
			[]string{provider.ParamCode},
			nil,
			time.Hour,
			limiter,
		),
	}
}

func (f *summaryFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	code := utils.NormalizeCode(params[provider.ParamCode])
	apiKey := params[injectedKeyParam]

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCode: code,
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/fins/summary?code=%s", baseURL, utils.ToFeedCode(code))
		var resp finSummaryResponse
		if err := fetchJQJSON(ctx, url, apiKey, &resp); err != nil {
			return nil, fmt.Errorf("jquants summary %s: %w", code, err)
		}

		samples := make([]models.FinancialPeriodSample, 0, len(resp.Summary))
		for _, row := range resp.Summary {
			samples = append(samples, row.toSample(code))
		}
		return samples, nil
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}
