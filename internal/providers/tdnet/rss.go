package tdnet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

const rssProviderName = "tdnet-rss"

// RSSProvider serves the disclosure listing from the Yanoshin RSS
// endpoint. Registered after the JSON provider, it acts as the
// fallback listing source when the JSON endpoint misbehaves.
type RSSProvider struct {
	provider.BaseProvider
}

// NewRSS creates the RSS-backed TDnet provider.
func NewRSS() *RSSProvider {
	p := &RSSProvider{
		BaseProvider: provider.NewBaseProvider(
			rssProviderName,
			"TDnet timely disclosures via the Yanoshin RSS feed",
			"https://webapi.yanoshin.jp",
			nil,
		),
	}
	p.RegisterFetcher(newRSSListingFetcher())
	return p
}

// ---- DisclosureListing fetcher (RSS) ----

type rssListingFetcher struct {
	provider.BaseFetcher
	parser *gofeed.Parser
}

func newRSSListingFetcher() *rssListingFetcher {
	return &rssListingFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelDisclosureListing,
			"All TDnet disclosures published on one date (RSS)",
			nil,
			[]string{provider.ParamDate},
			5*time.Minute,
		),
		parser: gofeed.NewParser(),
	}
}

func (f *rssListingFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	date := params[provider.ParamDate]
	if date == "" {
		date = utils.CompactDate(utils.NowJST())
	}

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamDate: date,
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/tdnet/list/%s.rss", baseURL, date)
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return nil, fmt.Errorf("tdnet rss %s: %w", date, err)
		}

		records := make([]models.DisclosureRecord, 0, len(feed.Items))
		for _, item := range feed.Items {
			code, name, title := splitRSSTitle(item.Title)
			rec := models.DisclosureRecord{
				CompanyCode: code,
				CompanyName: name,
				Title:       title,
				DocumentURL: item.Link,
			}
			if item.PublishedParsed != nil {
				rec.PublishedAt = utils.ToJST(*item.PublishedParsed)
			}
			records = append(records, rec)
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

// splitRSSTitle separates an RSS item title of the form
// "会社名(コード) 開示タイトル" into its parts. The code inside the
// parentheses is the feed's 5-digit form. Titles without a
// recognizable code yield an empty code; downstream row building
// skips those.
func splitRSSTitle(s string) (code, name, title string) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "(")
	if open < 0 {
		open = strings.Index(s, "（")
	}
	if open < 0 {
		return "", "", s
	}
	rest := s[open:]
	closeIdx := strings.IndexAny(rest, ")）")
	if closeIdx < 0 {
		return "", "", s
	}
	// Strip the bracket runes themselves, whichever width they are.
	inner := strings.TrimLeft(rest[:closeIdx], "(（")
	inner = strings.TrimSpace(inner)
	if !isFeedCode(inner) {
		return "", "", s
	}

	name = strings.TrimSpace(s[:open])
	tail := rest[closeIdx:]
	tail = strings.TrimLeft(tail, ")）")
	title = strings.TrimSpace(strings.TrimLeft(tail, " 　:：-"))
	return inner, name, title
}

// isFeedCode reports whether s looks like a 4- or 5-character security
// code (digits, with one letter allowed in the middle positions).
func isFeedCode(s string) bool {
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		// Codes like "130A0" carry a letter in positions 2-4.
		if i > 0 && i < 4 && r >= 'A' && r <= 'Z' {
			continue
		}
		return false
	}
	return true
}
