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

// defaultWindowDays covers disclosures that surface in the feed a day
// or two after the company's announcement.
const defaultWindowDays = 3

// ---- CompanyDisclosures fetcher ----
// One company's disclosures over a trailing window of days, deduped by
// document URL across the whole window.

type companyFetcher struct {
	provider.BaseFetcher
}

func newCompanyFetcher() *companyFetcher {
	return &companyFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCompanyDisclosures,
			"One company's TDnet disclosures over a trailing window of days",
			[]string{provider.ParamCode},
			[]string{provider.ParamDate, provider.ParamWindow},
			5*time.Minute,
		),
	}
}

func (f *companyFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	code := utils.NormalizeCode(params[provider.ParamCode])
	anchor := params[provider.ParamDate]
	if anchor == "" {
		anchor = utils.CompactDate(utils.NowJST())
	}
	window := defaultWindowDays
	if s := params[provider.ParamWindow]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			window = n
		}
	}

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCode:   code,
		provider.ParamDate:   anchor,
		provider.ParamWindow: strconv.Itoa(window),
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		return f.fetchWindow(ctx, code, anchor, window)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}

func (f *companyFetcher) fetchWindow(ctx context.Context, code, anchor string, window int) (any, error) {
	start, err := utils.ParseCompactDate(anchor)
	if err != nil {
		return nil, fmt.Errorf("tdnet company window: bad date %q: %w", anchor, err)
	}

	// The feed keys companies by the 5-digit form of the code.
	feedCode := utils.ToFeedCode(code)

	var all []listingItem
	var lastErr error
	for _, day := range utils.TrailingDates(start, window) {
		url := fmt.Sprintf("%s/tdnet/list/%s.json2?limit=%d", baseURL, utils.CompactDate(day), defaultListingLimit)
		resp, err := fetchListing(ctx, url)
		if err != nil {
			// A single bad day must not sink the window.
			lastErr = err
			continue
		}
		all = append(all, resp.Items...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("tdnet company window %s: %w", code, lastErr)
	}

	seen := make(map[string]bool)
	records := make([]models.DisclosureRecord, 0)
	for _, item := range all {
		rec := item.toRecord()
		if rec.CompanyCode != feedCode {
			continue
		}
		if rec.Title == "" || rec.DocumentURL == "" {
			continue
		}
		if seen[rec.DocumentURL] {
			continue
		}
		seen[rec.DocumentURL] = true
		rec.CompanyCode = code
		records = append(records, rec)
	}
	return records, nil
}
