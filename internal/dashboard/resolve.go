package dashboard

import (
	"context"
	"log"
	"strings"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// Resolve finds security codes for a free-form query by scanning
// today's disclosure listing. A query that looks like a code prefix
// matches on code; anything else matches case-insensitively on company
// name. One entry per distinct code, in listing order. Lookup failures
// resolve to no matches rather than an error: the listing only covers
// companies that disclosed today, so absence is normal.
func Resolve(ctx context.Context, reg *provider.Registry, query string) []models.CompanyMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.CompanyMatch{}
	}

	result, err := reg.FetchWithFallback(ctx, provider.ModelDisclosureListing, provider.QueryParams{})
	if err != nil {
		log.Printf("dashboard: resolve listing: %v", err)
		return []models.CompanyMatch{}
	}
	records, _ := result.Data.([]models.DisclosureRecord)

	lowerQuery := strings.ToLower(query)
	byCode := looksLikeCodePrefix(query)

	matches := make([]models.CompanyMatch, 0)
	seen := make(map[string]bool)
	for _, rec := range records {
		code := utils.NormalizeCode(rec.CompanyCode)
		if code == "" || seen[code] {
			continue
		}
		var hit bool
		if byCode {
			hit = strings.HasPrefix(code, query)
		} else {
			hit = strings.Contains(strings.ToLower(rec.CompanyName), lowerQuery)
		}
		if !hit {
			continue
		}
		seen[code] = true
		matches = append(matches, models.CompanyMatch{Code: code, Name: rec.CompanyName})
	}
	return matches
}

// looksLikeCodePrefix reports whether the query should match codes
// instead of names. Codes start with a digit and are at most four
// characters; growth-market codes can carry a letter after the first
// digit (e.g. "130A").
func looksLikeCodePrefix(query string) bool {
	if len(query) == 0 || len(query) > 4 {
		return false
	}
	for i, r := range query {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' {
			continue
		}
		return false
	}
	return true
}
