package serpscope

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// SearchQuery describes one results listing request.
type SearchQuery struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Domain   string `json:"googleDomain"`
	GL       string `json:"gl"`
	HL       string `json:"hl"`
	Num      int    `json:"num"`
	Safe     string `json:"safe"`
	LR       string `json:"lr,omitempty"`
}

// MaxResults is the largest listing size the results API serves.
const MaxResults = 100

// Validate returns an error if the query is missing required fields.
func (q *SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return Errorf(EINVALID, "query required")
	}
	if strings.TrimSpace(q.Location) == "" {
		return Errorf(EINVALID, "location required (e.g., \"Australia\", \"Japan\", or a city string)")
	}
	return nil
}

// Normalize fills unset locale fields from the country preset (if any) and
// then from global defaults, and clamps Num.
func (q *SearchQuery) Normalize(country string) {
	if p, ok := Presets[country]; ok {
		if q.Domain == "" {
			q.Domain = p.Domain
		}
		if q.GL == "" {
			q.GL = p.GL
		}
		if q.HL == "" {
			q.HL = p.HL
		}
	}
	if q.Domain == "" {
		q.Domain = "google.com"
	}
	if q.GL == "" {
		q.GL = "us"
	}
	if q.HL == "" {
		q.HL = "en"
	}
	if q.Num <= 0 {
		q.Num = 10
	}
	if q.Num > MaxResults {
		q.Num = MaxResults
	}
	if q.Safe == "" {
		q.Safe = "off"
	}
}

// IsEnglish reports whether the interface language is English.
func (q *SearchQuery) IsEnglish() bool {
	return strings.EqualFold(q.HL, "en")
}

// SearchURL builds a results page URL for the query, used when the listing
// does not supply one.
func (q *SearchQuery) SearchURL() string {
	v := url.Values{}
	v.Set("q", q.Query)
	v.Set("hl", q.HL)
	v.Set("gl", q.GL)
	v.Set("num", "10")
	v.Set("pws", "0")
	return "https://www." + q.Domain + "/search?" + v.Encode()
}

// SearchResult is a results listing as returned by the results API.
// Raw is the undecoded payload; readers must treat missing or malformed
// fields as absent.
type SearchResult struct {
	Raw json.RawMessage
}

// SearchClient queries the results API.
type SearchClient interface {
	// Search fetches the results listing for q.
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)

	// SearchAIOverview issues the narrower query dedicated to the
	// AI-generated overview feature.
	SearchAIOverview(ctx context.Context, q SearchQuery) (*SearchResult, error)
}
