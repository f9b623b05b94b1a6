package mock

import (
	"context"

	"github.com/fwojciec/serpscope"
)

var (
	_ serpscope.SearchClient   = (*SearchClient)(nil)
	_ serpscope.MarkerDetector = (*MarkerDetector)(nil)
)

// SearchClient is a mock implementation of serpscope.SearchClient.
type SearchClient struct {
	SearchFn           func(ctx context.Context, q serpscope.SearchQuery) (*serpscope.SearchResult, error)
	SearchAIOverviewFn func(ctx context.Context, q serpscope.SearchQuery) (*serpscope.SearchResult, error)
}

func (c *SearchClient) Search(ctx context.Context, q serpscope.SearchQuery) (*serpscope.SearchResult, error) {
	return c.SearchFn(ctx, q)
}

func (c *SearchClient) SearchAIOverview(ctx context.Context, q serpscope.SearchQuery) (*serpscope.SearchResult, error) {
	return c.SearchAIOverviewFn(ctx, q)
}

// MarkerDetector is a mock implementation of serpscope.MarkerDetector.
type MarkerDetector struct {
	DetectMarkersFn func(html string) (map[serpscope.Feature]bool, error)
}

func (d *MarkerDetector) DetectMarkers(html string) (map[serpscope.Feature]bool, error) {
	return d.DetectMarkersFn(html)
}
