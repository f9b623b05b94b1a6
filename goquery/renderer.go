package goquery

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/serpscope"
)

// DefaultMaxFrames bounds the number of embedded frames loaded per page.
const DefaultMaxFrames = 16

// Ensure Renderer implements serpscope.Renderer at compile time.
var _ serpscope.Renderer = (*Renderer)(nil)

// Renderer "renders" pages without a browser: documents are fetched over
// HTTP and parsed, scripts never run. Same-host and srcdoc frames are loaded;
// frames on other hosts are reported as inaccessible.
type Renderer struct {
	fetcher   serpscope.DocumentFetcher
	maxFrames int
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithMaxFrames sets the maximum number of embedded frames loaded per page.
func WithMaxFrames(n int) RendererOption {
	return func(r *Renderer) {
		r.maxFrames = n
	}
}

// NewRenderer creates a static Renderer backed by fetcher.
func NewRenderer(fetcher serpscope.DocumentFetcher, opts ...RendererOption) *Renderer {
	r := &Renderer{fetcher: fetcher, maxFrames: DefaultMaxFrames}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render fetches and parses url.
func (r *Renderer) Render(ctx context.Context, url string, opts serpscope.RenderOptions) (serpscope.Session, error) {
	headers := requestHeaders(opts)
	raw, err := r.fetcher.FetchDocument(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(raw.Body, raw.URL)
	if err != nil {
		return nil, err
	}
	return &Session{
		renderer: r,
		url:      url,
		status:   raw.Status,
		doc:      doc,
		headers:  headers,
		requests: []string{raw.URL},
	}, nil
}

func requestHeaders(opts serpscope.RenderOptions) map[string]string {
	headers := make(map[string]string, len(opts.Headers)+2)
	if opts.Locale != "" {
		headers["Accept-Language"] = opts.Locale
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	maps.Copy(headers, opts.Headers)
	return headers
}

// Ensure Session implements serpscope.Session at compile time.
var _ serpscope.Session = (*Session)(nil)

// Session is a statically parsed page. Waiting and scrolling are no-ops.
type Session struct {
	renderer *Renderer
	url      string
	status   int
	doc      *Document
	headers  map[string]string

	mu       sync.Mutex
	requests []string
	frames   []serpscope.Frame
}

func (s *Session) URL() string { return s.url }

func (s *Session) Status() int { return s.status }

func (s *Session) Settle(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func (s *Session) Scroll(ctx context.Context, _ serpscope.ScrollPlan) error { return ctx.Err() }

func (s *Session) ScrollToTop(ctx context.Context) error { return ctx.Err() }

// Frames returns the page and its embedded frames in discovery order. Frames
// are loaded once per session.
func (s *Session) Frames(ctx context.Context) ([]serpscope.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames != nil {
		return s.frames, nil
	}

	base, _ := url.Parse(s.doc.URL())
	frames := []serpscope.Frame{&Frame{url: s.doc.URL(), doc: s.doc}}
	queue := s.doc.frameRefs()
	for len(queue) > 0 && len(frames) <= s.renderer.maxFrames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref := queue[0]
		queue = queue[1:]

		doc := s.loadFrame(ctx, base, ref)
		if doc == nil {
			frames = append(frames, &Frame{url: ref.url})
			continue
		}
		frames = append(frames, &Frame{url: ref.url, doc: doc})
		queue = append(queue, doc.frameRefs()...)
	}
	s.frames = frames
	return frames, nil
}

// loadFrame returns the frame document, or nil when the frame is on another
// host or cannot be loaded. Must be called with mu held.
func (s *Session) loadFrame(ctx context.Context, base *url.URL, ref frameRef) *Document {
	if ref.inline {
		doc, err := Parse(ref.srcdoc, s.doc.URL())
		if err != nil {
			return nil
		}
		return doc
	}
	if !isSameHost(base, ref.url) {
		return nil
	}
	s.requests = append(s.requests, ref.url)
	raw, err := s.renderer.fetcher.FetchDocument(ctx, ref.url, s.headers)
	if err != nil || raw.Status >= 400 {
		return nil
	}
	doc, err := Parse(raw.Body, raw.URL)
	if err != nil {
		return nil
	}
	return doc
}

func (s *Session) Meta(_ context.Context) (*serpscope.PageMeta, error) {
	return s.doc.Meta(), nil
}

func (s *Session) HTML(_ context.Context) (string, error) {
	html, err := s.doc.HTML()
	if err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return html, nil
}

func (s *Session) VisibleText(_ context.Context) (string, error) {
	return s.doc.VisibleText(), nil
}

func (s *Session) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Close is a no-op; a static session holds no external resources.
func (s *Session) Close() error { return nil }

// Ensure Frame implements serpscope.Frame at compile time.
var _ serpscope.Frame = (*Frame)(nil)

// Frame is one document of a statically parsed page.
type Frame struct {
	url string
	doc *Document
}

func (f *Frame) URL() string { return f.url }

func (f *Frame) Document() (serpscope.Node, bool) {
	if f.doc == nil {
		return nil, false
	}
	return f.doc.Root(), true
}
