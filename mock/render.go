package mock

import (
	"context"
	"time"

	"github.com/fwojciec/serpscope"
)

var (
	_ serpscope.Renderer        = (*Renderer)(nil)
	_ serpscope.Session         = (*Session)(nil)
	_ serpscope.Frame           = (*Frame)(nil)
	_ serpscope.DocumentFetcher = (*DocumentFetcher)(nil)
)

// Renderer is a mock implementation of serpscope.Renderer.
type Renderer struct {
	RenderFn func(ctx context.Context, url string, opts serpscope.RenderOptions) (serpscope.Session, error)
}

func (r *Renderer) Render(ctx context.Context, url string, opts serpscope.RenderOptions) (serpscope.Session, error) {
	return r.RenderFn(ctx, url, opts)
}

// Session is a mock implementation of serpscope.Session.
type Session struct {
	URLFn         func() string
	StatusFn      func() int
	SettleFn      func(ctx context.Context, timeout time.Duration) error
	ScrollFn      func(ctx context.Context, plan serpscope.ScrollPlan) error
	ScrollToTopFn func(ctx context.Context) error
	FramesFn      func(ctx context.Context) ([]serpscope.Frame, error)
	MetaFn        func(ctx context.Context) (*serpscope.PageMeta, error)
	HTMLFn        func(ctx context.Context) (string, error)
	VisibleTextFn func(ctx context.Context) (string, error)
	RequestsFn    func() []string
	CloseFn       func() error
}

func (s *Session) URL() string { return s.URLFn() }

func (s *Session) Status() int { return s.StatusFn() }

func (s *Session) Settle(ctx context.Context, timeout time.Duration) error {
	return s.SettleFn(ctx, timeout)
}

func (s *Session) Scroll(ctx context.Context, plan serpscope.ScrollPlan) error {
	return s.ScrollFn(ctx, plan)
}

func (s *Session) ScrollToTop(ctx context.Context) error { return s.ScrollToTopFn(ctx) }

func (s *Session) Frames(ctx context.Context) ([]serpscope.Frame, error) { return s.FramesFn(ctx) }

func (s *Session) Meta(ctx context.Context) (*serpscope.PageMeta, error) { return s.MetaFn(ctx) }

func (s *Session) HTML(ctx context.Context) (string, error) { return s.HTMLFn(ctx) }

func (s *Session) VisibleText(ctx context.Context) (string, error) { return s.VisibleTextFn(ctx) }

func (s *Session) Requests() []string { return s.RequestsFn() }

func (s *Session) Close() error { return s.CloseFn() }

// Frame is a mock implementation of serpscope.Frame.
type Frame struct {
	URLFn      func() string
	DocumentFn func() (serpscope.Node, bool)
}

// NewFrame returns an accessible frame holding doc.
func NewFrame(url string, doc serpscope.Node) *Frame {
	return &Frame{
		URLFn:      func() string { return url },
		DocumentFn: func() (serpscope.Node, bool) { return doc, true },
	}
}

// NewCrossOriginFrame returns a frame whose document cannot be inspected.
func NewCrossOriginFrame(url string) *Frame {
	return &Frame{
		URLFn:      func() string { return url },
		DocumentFn: func() (serpscope.Node, bool) { return nil, false },
	}
}

func (f *Frame) URL() string { return f.URLFn() }

func (f *Frame) Document() (serpscope.Node, bool) { return f.DocumentFn() }

// DocumentFetcher is a mock implementation of serpscope.DocumentFetcher.
type DocumentFetcher struct {
	FetchDocumentFn func(ctx context.Context, url string, headers map[string]string) (*serpscope.RawDocument, error)
}

func (f *DocumentFetcher) FetchDocument(ctx context.Context, url string, headers map[string]string) (*serpscope.RawDocument, error) {
	return f.FetchDocumentFn(ctx, url, headers)
}

// NewSession returns a session that loaded url with status 200 and serves
// frames. Every other operation succeeds without effect; override fields to
// change behavior.
func NewSession(url string, frames ...serpscope.Frame) *Session {
	return &Session{
		URLFn:         func() string { return url },
		StatusFn:      func() int { return 200 },
		SettleFn:      func(context.Context, time.Duration) error { return nil },
		ScrollFn:      func(context.Context, serpscope.ScrollPlan) error { return nil },
		ScrollToTopFn: func(context.Context) error { return nil },
		FramesFn:      func(context.Context) ([]serpscope.Frame, error) { return frames, nil },
		MetaFn:        func(context.Context) (*serpscope.PageMeta, error) { return &serpscope.PageMeta{}, nil },
		HTMLFn:        func(context.Context) (string, error) { return "<html></html>", nil },
		VisibleTextFn: func(context.Context) (string, error) { return "", nil },
		RequestsFn:    func() []string { return nil },
		CloseFn:       func() error { return nil },
	}
}
