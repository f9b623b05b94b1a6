package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fwojciec/serpscope"
	"github.com/tidwall/gjson"
)

// DefaultSearchURL is the results API endpoint.
const DefaultSearchURL = "https://serpapi.com/search.json"

// Default timeouts of results API calls.
const (
	DefaultSearchTimeout   = 60 * time.Second
	DefaultOverviewTimeout = 45 * time.Second
)

// Ensure SearchClient implements serpscope.SearchClient at compile time.
var _ serpscope.SearchClient = (*SearchClient)(nil)

// SearchClient queries the SerpApi results API.
type SearchClient struct {
	client          *http.Client
	apiKey          string
	endpoint        string
	searchTimeout   time.Duration
	overviewTimeout time.Duration
}

// SearchOption configures a SearchClient.
type SearchOption func(*SearchClient)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) SearchOption {
	return func(c *SearchClient) { c.endpoint = endpoint }
}

// WithSearchTimeout sets the timeout of the main listing query.
func WithSearchTimeout(d time.Duration) SearchOption {
	return func(c *SearchClient) { c.searchTimeout = d }
}

// WithOverviewTimeout sets the timeout of the AI overview query.
func WithOverviewTimeout(d time.Duration) SearchOption {
	return func(c *SearchClient) { c.overviewTimeout = d }
}

// NewSearchClient creates a SearchClient authenticating with apiKey.
func NewSearchClient(apiKey string, opts ...SearchOption) *SearchClient {
	c := &SearchClient{
		client:          http.DefaultClient,
		apiKey:          apiKey,
		endpoint:        DefaultSearchURL,
		searchTimeout:   DefaultSearchTimeout,
		overviewTimeout: DefaultOverviewTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search fetches the desktop results listing for q, bypassing the API cache.
func (c *SearchClient) Search(ctx context.Context, q serpscope.SearchQuery) (*serpscope.SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q.Query)
	params.Set("location", q.Location)
	params.Set("google_domain", q.Domain)
	params.Set("gl", q.GL)
	params.Set("hl", q.HL)
	params.Set("num", strconv.Itoa(q.Num))
	params.Set("device", "desktop")
	params.Set("safe", q.Safe)
	params.Set("no_cache", "true")
	if q.LR != "" {
		params.Set("lr", q.LR)
	}
	return c.get(ctx, params, c.searchTimeout)
}

// SearchAIOverview issues the dedicated AI overview query for q.
func (c *SearchClient) SearchAIOverview(ctx context.Context, q serpscope.SearchQuery) (*serpscope.SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google_ai_overview")
	params.Set("q", q.Query)
	params.Set("location", q.Location)
	params.Set("google_domain", q.Domain)
	params.Set("gl", q.GL)
	params.Set("hl", q.HL)
	return c.get(ctx, params, c.overviewTimeout)
}

func (c *SearchClient) get(ctx context.Context, params url.Values, timeout time.Duration) (*serpscope.SearchResult, error) {
	if c.apiKey == "" {
		return nil, serpscope.Errorf(serpscope.EINVALID, "results API key required")
	}
	params.Set("api_key", c.apiKey)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// The request URL carries the API key; keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("querying %s: %w", params.Get("engine"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", params.Get("engine"), err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		code := serpscope.EINTERNAL
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			code = serpscope.EINVALID
		}
		return nil, serpscope.Errorf(code, "results API returned HTTP %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return nil, serpscope.Errorf(serpscope.EINTERNAL, "results API returned malformed JSON")
	}

	return &serpscope.SearchResult{Raw: json.RawMessage(body)}, nil
}
