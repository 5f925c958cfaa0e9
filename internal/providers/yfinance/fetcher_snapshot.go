package yfinance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// snapshotModules are the quoteSummary modules a valuation snapshot
// needs. Each module is optional per ticker.
const snapshotModules = "price,summaryDetail,defaultKeyStatistics,financialData"

// ---- MarketSnapshot fetcher ----
// Real-time price and valuation ratios for one Tokyo-listed company.
// Every output field is independently optional: a ticker missing its
// PE must still yield its price, and vice versa.

type snapshotFetcher struct {
	provider.BaseFetcher
}

func newSnapshotFetcher() *snapshotFetcher {
	return &snapshotFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelMarketSnapshot,
			"Price, market cap, PER, PBR, and dividend yield from Yahoo Finance",
			[]string{provider.ParamCode},
			nil,
			5*time.Minute,
		),
	}
}

func (f *snapshotFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	code := utils.NormalizeCode(params[provider.ParamCode])

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCode: code,
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		ticker := utils.ToYahooTicker(code)
		url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", baseURL, ticker, snapshotModules)

		var resp yfQuoteSummaryResponse
		if err := fetchYFJSON(ctx, url, &resp); err != nil {
			return nil, fmt.Errorf("yfinance snapshot %s: %w", ticker, err)
		}
		if resp.QuoteSummary.Error != nil {
			return nil, fmt.Errorf("yfinance snapshot %s: %s", ticker, resp.QuoteSummary.Error.Description)
		}
		if len(resp.QuoteSummary.Result) == 0 {
			return nil, fmt.Errorf("yfinance snapshot %s: empty result", ticker)
		}

		return buildSnapshot(code, resp.QuoteSummary.Result[0]), nil
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}

// buildSnapshot extracts the per-field-optional snapshot from the
// quoteSummary modules.
func buildSnapshot(code string, r yfQuoteSummaryResult) *models.MarketSnapshot {
	snap := &models.MarketSnapshot{
		CompanyCode: code,
		FetchedAt:   time.Now(),
	}

	// Price: live currentPrice first, regularMarketPrice as fallback.
	if r.FinancialData != nil {
		snap.Price = r.FinancialData.CurrentPrice.Raw
	}
	if snap.Price == nil && r.Price != nil {
		snap.Price = r.Price.RegularMarketPrice.Raw
	}

	if r.Price != nil {
		snap.MarketCap = r.Price.MarketCap.Raw
	}
	if snap.MarketCap == nil && r.SummaryDetail != nil {
		snap.MarketCap = r.SummaryDetail.MarketCap.Raw
	}

	if r.SummaryDetail != nil {
		snap.TrailingPE = round2(r.SummaryDetail.TrailingPE.Raw)
	}
	if r.DefaultKeyStatistics != nil {
		snap.PriceToBook = round2(r.DefaultKeyStatistics.PriceToBook.Raw)
	}

	// Yield is derived from the rate, never taken from Yahoo's own
	// yield field. A zero or missing price yields no yield.
	if r.SummaryDetail != nil {
		rate := r.SummaryDetail.DividendRate.Raw
		if rate != nil && *rate != 0 && snap.Price != nil && *snap.Price > 0 {
			y := math.Round(*rate / *snap.Price * 100 * 100) / 100
			snap.DividendYield = &y
		}
	}

	return snap
}

func round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}
