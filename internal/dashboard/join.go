package dashboard

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
)

// Joiner enriches disclosure rows with quarterly financials and a
// market snapshot, one provider fetch per concern.
type Joiner struct {
	registry *provider.Registry
}

// NewJoiner creates a joiner backed by the given provider registry.
func NewJoiner(reg *provider.Registry) *Joiner {
	return &Joiner{registry: reg}
}

// Merge joins financials and market data onto each row, keeping
// disclosure-listing order. Companies are processed one at a time so
// the financial provider's shared rate limiter paces the whole run;
// within a company the two fetches run concurrently. A failed fetch
// leaves that row's fields absent, it never fails the merge.
func (j *Joiner) Merge(ctx context.Context, rows []models.CompanyDisclosureRow) []models.MergedRow {
	merged := make([]models.MergedRow, len(rows))

	for i, row := range rows {
		merged[i].CompanyDisclosureRow = row

		g, gctx := errgroup.WithContext(ctx)
		idx := i
		code := row.CompanyCode

		g.Go(func() error {
			samples, err := j.financialSamples(gctx, code)
			if err != nil {
				log.Printf("dashboard: financials %s: %v", code, err)
				return nil
			}
			merged[idx].Quarterly = Reconcile(samples)
			return nil
		})

		g.Go(func() error {
			snap, err := j.marketSnapshot(gctx, code)
			if err != nil {
				log.Printf("dashboard: market %s: %v", code, err)
				return nil
			}
			merged[idx].Market = *snap
			return nil
		})

		g.Wait()
		if ctx.Err() != nil {
			break
		}
	}

	return merged
}

func (j *Joiner) financialSamples(ctx context.Context, code string) ([]models.FinancialPeriodSample, error) {
	result, err := j.registry.Fetch(ctx, provider.ModelFinancialSummary, provider.QueryParams{
		provider.ParamCode: code,
	})
	if err != nil {
		return nil, err
	}
	samples, _ := result.Data.([]models.FinancialPeriodSample)
	return samples, nil
}

func (j *Joiner) marketSnapshot(ctx context.Context, code string) (*models.MarketSnapshot, error) {
	result, err := j.registry.FetchWithFallback(ctx, provider.ModelMarketSnapshot, provider.QueryParams{
		provider.ParamCode: code,
	})
	if err != nil {
		return nil, err
	}
	snap, ok := result.Data.(*models.MarketSnapshot)
	if !ok || snap == nil {
		return &models.MarketSnapshot{CompanyCode: code}, nil
	}
	return snap, nil
}
