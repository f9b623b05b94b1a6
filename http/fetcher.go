// Package http provides HTTP implementations of the results API client and
// of serpscope.DocumentFetcher for pages that are not rendered in a browser.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/serpscope"
)

// DefaultFetchTimeout is the default timeout for document requests.
const DefaultFetchTimeout = 30 * time.Second

// MaxDocumentBytes caps the size of a fetched document.
const MaxDocumentBytes = 10 << 20

// Ensure Fetcher implements serpscope.DocumentFetcher at compile time.
var _ serpscope.DocumentFetcher = (*Fetcher)(nil)

// Fetcher retrieves documents using plain HTTP requests. It does not execute
// JavaScript.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// FetchDocument retrieves url. Non-success statuses are returned in the
// document rather than as errors; errors mean the server could not be reached.
func (f *Fetcher) FetchDocument(ctx context.Context, url string, headers map[string]string) (*serpscope.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, serpscope.Errorf(serpscope.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", serpscope.DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	return &serpscope.RawDocument{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Body:   string(body),
	}, nil
}
