package tdnet

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// listingResponse is the Yanoshin list endpoint envelope.
type listingResponse struct {
	Items []listingItem `json:"items"`
}

// disclosurePayload is one disclosure entry as served by the API.
// company_code in the feed is five characters: the four-character
// security code plus a trailing "0".
type disclosurePayload struct {
	CompanyCode string `json:"company_code"`
	CompanyName string `json:"company_name"`
	Title       string `json:"title"`
	DocumentURL string `json:"document_url"`
	Pubdate     string `json:"pubdate"`
}

// listingItem unwraps the two shapes the API serves: the .json
// endpoint nests each entry under a "Tdnet" key, the .json2 endpoint
// serves the entry flat.
type listingItem struct {
	payload disclosurePayload
}

func (it *listingItem) UnmarshalJSON(b []byte) error {
	var wrapped struct {
		Tdnet *disclosurePayload `json:"Tdnet"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Tdnet != nil {
		it.payload = *wrapped.Tdnet
		return nil
	}
	return json.Unmarshal(b, &it.payload)
}

func (it listingItem) toRecord() models.DisclosureRecord {
	return models.DisclosureRecord{
		CompanyCode: strings.TrimSpace(it.payload.CompanyCode),
		CompanyName: it.payload.CompanyName,
		Title:       it.payload.Title,
		DocumentURL: it.payload.DocumentURL,
		PublishedAt: parsePubdate(it.payload.Pubdate),
	}
}

// pubdate layouts observed in the feed.
var pubdateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// parsePubdate parses a feed timestamp in JST. Unparseable input
// yields the zero time rather than an error; a record without a
// timestamp is still worth showing.
func parsePubdate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range pubdateLayouts {
		if t, err := time.ParseInLocation(layout, s, utils.JST); err == nil {
			return t
		}
	}
	return time.Time{}
}
