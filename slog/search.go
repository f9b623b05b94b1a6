package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
)

// Ensure LoggingSearchClient implements serpscope.SearchClient.
var _ serpscope.SearchClient = (*LoggingSearchClient)(nil)

// LoggingSearchClient wraps a SearchClient with logging.
type LoggingSearchClient struct {
	next   serpscope.SearchClient
	logger *slog.Logger
}

// NewLoggingSearchClient creates a new LoggingSearchClient.
func NewLoggingSearchClient(next serpscope.SearchClient, logger *slog.Logger) *LoggingSearchClient {
	return &LoggingSearchClient{next: next, logger: logger}
}

// Search delegates to the wrapped client and logs the query.
func (c *LoggingSearchClient) Search(ctx context.Context, q serpscope.SearchQuery) (res *serpscope.SearchResult, err error) {
	defer func(begin time.Time) {
		c.log("search", q, res, begin, err)
	}(time.Now())
	return c.next.Search(ctx, q)
}

// SearchAIOverview delegates to the wrapped client and logs the query.
func (c *LoggingSearchClient) SearchAIOverview(ctx context.Context, q serpscope.SearchQuery) (res *serpscope.SearchResult, err error) {
	defer func(begin time.Time) {
		c.log("overview search", q, res, begin, err)
	}(time.Now())
	return c.next.SearchAIOverview(ctx, q)
}

func (c *LoggingSearchClient) log(msg string, q serpscope.SearchQuery, res *serpscope.SearchResult, begin time.Time, err error) {
	var n int
	if res != nil {
		n = len(res.Raw)
	}
	c.logger.Info(msg,
		"query", q.Query,
		"location", q.Location,
		"hl", q.HL,
		"bytes", n,
		"duration", time.Since(begin),
		"err", err,
	)
}
