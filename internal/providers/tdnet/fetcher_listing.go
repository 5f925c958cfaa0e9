package tdnet

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// defaultListingLimit matches the feed's per-day maximum.
const defaultListingLimit = 500

// ---- DisclosureListing fetcher ----
// One day's full disclosure list from the .json2 endpoint.

type listingFetcher struct {
	provider.BaseFetcher
}

func newListingFetcher() *listingFetcher {
	return &listingFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelDisclosureListing,
			"All TDnet disclosures published on one date",
			nil,
			[]string{provider.ParamDate, provider.ParamLimit},
			5*time.Minute,
		),
	}
}

func (f *listingFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	date := params[provider.ParamDate]
	if date == "" {
		date = utils.CompactDate(utils.NowJST())
	}
	limit := defaultListingLimit
	if s := params[provider.ParamLimit]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	// Key on the resolved date so an unset "today" does not outlive
	// the day it was fetched on.
	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamDate:  date,
		provider.ParamLimit: strconv.Itoa(limit),
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/tdnet/list/%s.json2?limit=%d", baseURL, date, limit)
		resp, err := fetchListing(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("tdnet listing %s: %w", date, err)
		}

		records := make([]models.DisclosureRecord, 0, len(resp.Items))
		for _, item := range resp.Items {
			records = append(records, item.toRecord())
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}
