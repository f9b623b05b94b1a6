package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/serpscope"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultNavigateTimeout bounds navigation and the load event.
const DefaultNavigateTimeout = 60 * time.Second

// Ensure Renderer implements serpscope.Renderer at compile time.
var _ serpscope.Renderer = (*Renderer)(nil)

// Renderer renders pages in isolated incognito contexts of a managed browser.
// Renderer is safe for concurrent use; each session owns its own context.
type Renderer struct {
	manager         *BrowserManager
	navigateTimeout time.Duration
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithNavigateTimeout sets the timeout for navigation and the load event.
func WithNavigateTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.navigateTimeout = d
	}
}

// NewRenderer creates a Renderer backed by manager.
func NewRenderer(manager *BrowserManager, opts ...RendererOption) *Renderer {
	r := &Renderer{
		manager:         manager,
		navigateTimeout: DefaultNavigateTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render opens a fresh incognito page, applies the locale and headers, and
// navigates to url, waiting for the load event.
func (r *Renderer) Render(ctx context.Context, url string, opts serpscope.RenderOptions) (serpscope.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, release, err := r.manager.Acquire()
	if err != nil {
		return nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		release()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	s := &Session{url: url, incognito: incognito, release: release, network: newNetworkTracker()}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating page: %w", err)
	}
	s.page = page

	if err := s.listen(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.configure(opts); err != nil {
		_ = s.Close()
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, r.navigateTimeout)
	defer cancel()
	nav := page.Context(navCtx)
	waitDocument := s.waitDocument(navCtx)
	if err := nav.Navigate(url); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	waitDocument()
	if err := nav.WaitLoad(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("waiting for %s to load: %w", url, err)
	}

	if opts.DismissConsent {
		s.dismissConsent(ctx)
	}

	return s, nil
}

// Ensure Session implements serpscope.Session at compile time.
var _ serpscope.Session = (*Session)(nil)

// Session is a page rendered by Renderer.
type Session struct {
	url       string
	incognito *rod.Browser
	page      *rod.Page
	network   *networkTracker
	release   func()
	stop      context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// listen starts recording network activity of the page.
func (s *Session) listen() error {
	if err := (proto.NetworkEnable{}).Call(s.page); err != nil {
		return fmt.Errorf("enabling network events: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel

	wait := s.page.Context(ctx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			s.network.started(string(e.RequestID), e.Request.URL)
		},
		func(e *proto.NetworkLoadingFinished) {
			s.network.finished(string(e.RequestID))
		},
		func(e *proto.NetworkLoadingFailed) {
			s.network.finished(string(e.RequestID))
		},
	)
	go wait()
	return nil
}

// waitDocument subscribes to the main-frame document response. The returned
// function blocks until that response arrives, records its status, or gives
// up when ctx is done.
func (s *Session) waitDocument(ctx context.Context) func() {
	mainFrame := s.page.FrameID
	return s.page.Context(ctx).EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.FrameID != mainFrame {
			return false
		}
		s.network.document(e.Response.Status)
		return true
	})
}

// configure applies the user agent, locale and extra headers.
func (s *Session) configure(opts serpscope.RenderOptions) error {
	ua := opts.UserAgent
	if ua == "" {
		ua = serpscope.DefaultUserAgent
	}
	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: opts.Locale,
	}); err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}

	if opts.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: opts.Locale}).Call(s.page); err != nil {
			return fmt.Errorf("setting locale: %w", err)
		}
	}

	var dict []string
	if opts.Locale != "" {
		dict = append(dict, "Accept-Language", opts.Locale)
	}
	for k, v := range opts.Headers {
		dict = append(dict, k, v)
	}
	if len(dict) > 0 {
		if _, err := s.page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("setting headers: %w", err)
		}
	}
	return nil
}

// dismissConsent clicks through a cookie consent dialog if one shows up.
func (s *Session) dismissConsent(ctx context.Context) {
	for range 4 {
		res, err := s.page.Context(ctx).Eval(consentJS)
		if err == nil && res.Value.Bool() {
			return
		}
		if sleep(ctx, 500*time.Millisecond) != nil {
			return
		}
	}
}

func (s *Session) URL() string { return s.url }

func (s *Session) Status() int { return s.network.Status() }

// Settle waits for the network to go idle. Reaching timeout is not an error.
func (s *Session) Settle(ctx context.Context, timeout time.Duration) error {
	return s.network.waitIdle(ctx, DefaultIdleWindow, timeout)
}

// Scroll runs plan against the primary frame, pausing after each step.
func (s *Session) Scroll(ctx context.Context, plan serpscope.ScrollPlan) error {
	page := s.page.Context(ctx)
	dir, y := 1, 0
	for range plan.Steps {
		dy := plan.StepPx * dir
		if _, err := page.Eval(`(dy) => window.scrollBy(0, dy)`, dy); err != nil {
			return fmt.Errorf("scrolling: %w", err)
		}
		y += dy
		if plan.TurnAfterPx > 0 && y > plan.TurnAfterPx {
			dir = -1
		}
		if err := sleep(ctx, plan.Pause); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) ScrollToTop(ctx context.Context) error {
	if _, err := s.page.Context(ctx).Eval(`() => window.scrollTo({top: 0, behavior: 'instant'})`); err != nil {
		return fmt.Errorf("scrolling to top: %w", err)
	}
	return nil
}

// Frames snapshots the page and every frame reachable from it.
func (s *Session) Frames(ctx context.Context) ([]serpscope.Frame, error) {
	res, err := s.page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("snapshotting page: %w", err)
	}
	return DecodeSnapshot([]byte(res.Value.Str()))
}

func (s *Session) Meta(ctx context.Context) (*serpscope.PageMeta, error) {
	res, err := s.page.Context(ctx).Eval(metaJS)
	if err != nil {
		return nil, fmt.Errorf("reading page metadata: %w", err)
	}
	return DecodeMeta([]byte(res.Value.Str()))
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *Session) VisibleText(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return "", fmt.Errorf("reading visible text: %w", err)
	}
	return res.Value.Str(), nil
}

func (s *Session) Requests() []string { return s.network.Requests() }

// Close closes the page and its browser context. Close is safe to call
// multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		var errs []error
		if s.page != nil {
			errs = append(errs, s.page.Close())
		}
		if s.incognito != nil {
			errs = append(errs, s.incognito.Close())
		}
		s.release()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
