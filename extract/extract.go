// Package extract recovers heading outlines from rendered pages.
//
// An Aggregator renders each page in its own session, materializes lazily
// loaded content by scrolling, classifies the primary document and every
// accessible frame, and retries once when the result is sparse. Pages that
// cannot be loaded are reported as omissions.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/serpscope"
	"golang.org/x/sync/errgroup"
)

// Extraction defaults.
const (
	DefaultSparseThreshold = 2
	DefaultScrollSteps     = 16
	DefaultScrollStepPx    = 950
	DefaultScrollPause     = 110 * time.Millisecond
	DefaultExtraWait       = 2 * time.Second
	DefaultSettleTimeout   = 20 * time.Second
	DefaultPageTimeout     = 2 * time.Minute
	DefaultConcurrency     = 1

	// DefaultReferer is sent with every page request so pages render the
	// variant served to search visitors.
	DefaultReferer = "https://www.google.com/"
)

const (
	retryScrollPause = 140 * time.Millisecond
	retryWaitPadding = 500 * time.Millisecond
	minRetrySteps    = 10
)

var _ serpscope.PageExtractor = (*Aggregator)(nil)

// Aggregator extracts heading outlines from pages.
type Aggregator struct {
	renderer    serpscope.Renderer
	content     serpscope.ContentExtractor
	pacer       serpscope.HostPacer
	logger      *slog.Logger

	classify        serpscope.ClassifyOptions
	sparseThreshold int
	scroll          serpscope.ScrollPlan
	extraWait       time.Duration
	retryWait       time.Duration
	retryWaitSet    bool
	settleTimeout   time.Duration
	pageTimeout     time.Duration
	respectNoindex  bool
	locale          string
	headers         map[string]string
	concurrency     int
	retryDelays     []time.Duration
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClassifyOptions sets the heading classification options.
func WithClassifyOptions(opts serpscope.ClassifyOptions) Option {
	return func(a *Aggregator) { a.classify = opts }
}

// WithSparseThreshold sets the heading count below which a page is
// re-scrolled and re-extracted once. Zero disables the retry.
func WithSparseThreshold(n int) Option {
	return func(a *Aggregator) { a.sparseThreshold = n }
}

// WithScrollPlan sets the scroll sequence run before extraction.
func WithScrollPlan(plan serpscope.ScrollPlan) Option {
	return func(a *Aggregator) { a.scroll = plan }
}

// WithExtraWait sets the pause after scrolling.
func WithExtraWait(d time.Duration) Option {
	return func(a *Aggregator) { a.extraWait = d }
}

// WithRetryWait sets the pause after the retry scroll. It defaults to the
// extra wait plus 500ms.
func WithRetryWait(d time.Duration) Option {
	return func(a *Aggregator) {
		a.retryWait = d
		a.retryWaitSet = true
	}
}

// WithSettleTimeout bounds the wait for network activity to go quiet.
func WithSettleTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.settleTimeout = d }
}

// WithPageTimeout bounds the whole extraction of one page.
func WithPageTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.pageTimeout = d }
}

// WithRespectNoindex omits pages whose robots directives forbid indexing.
func WithRespectNoindex(v bool) Option {
	return func(a *Aggregator) { a.respectNoindex = v }
}

// WithLocale sets the browser locale and Accept-Language.
func WithLocale(locale string) Option {
	return func(a *Aggregator) { a.locale = locale }
}

// WithHeaders adds request headers. They override the default Referer.
func WithHeaders(headers map[string]string) Option {
	return func(a *Aggregator) {
		for k, v := range headers {
			a.headers[k] = v
		}
	}
}

// WithConcurrency sets the number of pages processed at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

// WithRetryDelays sets the backoff delays between render attempts. An empty
// slice disables render retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(a *Aggregator) { a.retryDelays = delays }
}

// WithContentExtractor enables main-content word counts.
func WithContentExtractor(c serpscope.ContentExtractor) Option {
	return func(a *Aggregator) { a.content = c }
}

// WithHostPacer paces page loads per site.
func WithHostPacer(p serpscope.HostPacer) Option {
	return func(a *Aggregator) { a.pacer = p }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// NewAggregator creates an Aggregator rendering pages with renderer.
func NewAggregator(renderer serpscope.Renderer, opts ...Option) *Aggregator {
	a := &Aggregator{
		renderer:        renderer,
		classify:        serpscope.ClassifyOptions{IncludeHidden: true, HeadingLike: true},
		sparseThreshold: DefaultSparseThreshold,
		scroll: serpscope.ScrollPlan{
			Steps:  DefaultScrollSteps,
			StepPx: DefaultScrollStepPx,
			Pause:  DefaultScrollPause,
		},
		extraWait:     DefaultExtraWait,
		settleTimeout: DefaultSettleTimeout,
		pageTimeout:   DefaultPageTimeout,
		headers:       map[string]string{"Referer": DefaultReferer},
		concurrency:   DefaultConcurrency,
		retryDelays:   DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.concurrency <= 0 {
		a.concurrency = DefaultConcurrency
	}
	if !a.retryWaitSet {
		a.retryWait = a.extraWait + retryWaitPadding
	}
	return a
}

// result holds the outcome of processing a single URL.
type result struct {
	position int
	url      string
	page     *serpscope.PageResult
	err      error
}

// ExtractAll extracts every URL, keeping listing order. Positions are
// 1-based. Pages that fail are returned as omissions. The error is non-nil
// only when ctx is canceled.
func (a *Aggregator) ExtractAll(ctx context.Context, urls []string, progress serpscope.ExtractProgressFunc) ([]*serpscope.PageResult, []serpscope.PageOmission, error) {
	resultCh := make(chan result, len(urls))

	var completed atomic.Int64
	total := len(urls)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	go func() {
		for i, u := range urls {
			g.Go(func() error {
				page, err := a.Extract(gctx, u)
				resultCh <- result{position: i, url: u, page: page, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]result, len(urls))
	for r := range resultCh {
		results[r.position] = r
		if progress != nil {
			progress(serpscope.ExtractProgress{
				URL:       r.url,
				Completed: int(completed.Add(1)),
				Total:     total,
				Error:     r.err,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var pages []*serpscope.PageResult
	var omitted []serpscope.PageOmission
	for _, r := range results {
		if r.err != nil {
			omitted = append(omitted, serpscope.PageOmission{
				URL:      r.url,
				Position: r.position + 1,
				Code:     serpscope.ErrorCode(r.err),
				Reason:   reason(r.err),
			})
			continue
		}
		r.page.Position = r.position + 1
		pages = append(pages, r.page)
	}
	return pages, omitted, nil
}

// Extract renders pageURL and returns its outline. It returns an
// EUNREACHABLE error when the page cannot be loaded and an ENOINDEX error
// when the page forbids indexing and noindex pages are excluded.
func (a *Aggregator) Extract(ctx context.Context, pageURL string) (*serpscope.PageResult, error) {
	if a.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.pageTimeout)
		defer cancel()
	}

	if a.pacer != nil {
		if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
			if err := a.pacer.Wait(ctx, u.Host); err != nil {
				return nil, err
			}
		}
	}

	session, err := renderWithRetry(ctx, a.renderer, pageURL, a.renderOptions(), a.retryDelays, a.logger)
	if err != nil {
		return nil, unreachable(pageURL, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.logger.Warn("closing session", "url", pageURL, "error", err)
		}
	}()

	if status := session.Status(); status == 0 || status >= 400 {
		return nil, serpscope.Errorf(serpscope.EUNREACHABLE, "%s: HTTP status %d", pageURL, status)
	}

	page := &serpscope.PageResult{URL: pageURL}
	meta, err := session.Meta(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, unreachable(pageURL, err)
		}
		a.logger.Debug("reading page metadata", "url", pageURL, "error", err)
	} else if meta != nil {
		page.Meta = *meta
	}
	if a.respectNoindex && page.Meta.NoIndex() {
		return nil, serpscope.Errorf(serpscope.ENOINDEX, "%s: robots directive forbids indexing", pageURL)
	}

	if err := a.materialize(ctx, session, a.scroll, a.extraWait); err != nil {
		return nil, unreachable(pageURL, err)
	}
	if err := session.ScrollToTop(ctx); err != nil {
		return nil, unreachable(pageURL, err)
	}

	frames, err := session.Frames(ctx)
	if err != nil {
		return nil, unreachable(pageURL, fmt.Errorf("snapshotting frames: %w", err))
	}

	builder := serpscope.NewOutlineBuilder()
	stats, skipped, err := a.classifyFrames(ctx, frames, builder)
	if err != nil {
		return nil, unreachable(pageURL, err)
	}
	page.Frames = stats
	page.Skipped = skipped

	if a.sparseThreshold > 0 && builder.Len() < a.sparseThreshold {
		stat, err := a.retry(ctx, session, builder)
		if err != nil {
			if ctx.Err() != nil {
				return nil, unreachable(pageURL, err)
			}
			// Keep the first pass.
			a.logger.Debug("sparse retry failed", "url", pageURL, "error", err)
		}
		page.Retried = true
		if stat != nil {
			page.Frames = append(page.Frames, *stat)
		}
	}

	page.Outline = builder.Outline()
	page.Fingerprint = page.Outline.Fingerprint()
	page.WordCount = a.wordCount(ctx, session)

	a.logger.Debug("extracted page",
		"url", pageURL,
		"headings", page.Outline.Len(),
		"frames", len(page.Frames),
		"skipped", page.Skipped,
		"retried", page.Retried,
	)
	return page, nil
}

// renderOptions returns the options for a page session.
func (a *Aggregator) renderOptions() serpscope.RenderOptions {
	headers := make(map[string]string, len(a.headers))
	for k, v := range a.headers {
		headers[k] = v
	}
	return serpscope.RenderOptions{Locale: a.locale, Headers: headers}
}

// materialize waits for the network to settle, scrolls and pauses.
func (a *Aggregator) materialize(ctx context.Context, session serpscope.Session, plan serpscope.ScrollPlan, pause time.Duration) error {
	if err := session.Settle(ctx, a.settleTimeout); err != nil {
		return fmt.Errorf("settling: %w", err)
	}
	if err := session.Scroll(ctx, plan); err != nil {
		return fmt.Errorf("scrolling: %w", err)
	}
	return wait(ctx, pause)
}

// classifyFrames classifies every accessible frame concurrently and merges
// the outlines into builder in discovery order. It returns one stat per
// accessible frame and the number of frames skipped.
func (a *Aggregator) classifyFrames(ctx context.Context, frames []serpscope.Frame, builder *serpscope.OutlineBuilder) ([]serpscope.FrameStat, int, error) {
	outlines := make([]serpscope.Outline, len(frames))
	accessible := make([]bool, len(frames))
	var skipped int

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range frames {
		doc, ok := f.Document()
		if !ok {
			skipped++
			continue
		}
		accessible[i] = true
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outlines[i] = serpscope.ExtractOutline(a.classify, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var stats []serpscope.FrameStat
	for i, f := range frames {
		if !accessible[i] {
			continue
		}
		builder.Merge(outlines[i])
		stats = append(stats, serpscope.FrameStat{URL: f.URL(), Counts: outlines[i].Counts()})
	}
	return stats, skipped, nil
}

// retry re-scrolls the primary frame and merges a fresh extraction of it.
// The returned stat is nil when the primary frame is not inspectable.
func (a *Aggregator) retry(ctx context.Context, session serpscope.Session, builder *serpscope.OutlineBuilder) (*serpscope.FrameStat, error) {
	plan := serpscope.ScrollPlan{
		Steps:  max(minRetrySteps, a.scroll.Steps*6/5),
		StepPx: a.scroll.StepPx,
		Pause:  retryScrollPause,
	}
	if err := session.Scroll(ctx, plan); err != nil {
		return nil, fmt.Errorf("retry scrolling: %w", err)
	}
	if err := wait(ctx, a.retryWait); err != nil {
		return nil, err
	}

	frames, err := session.Frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("retry snapshot: %w", err)
	}
	if len(frames) == 0 {
		return nil, nil
	}
	doc, ok := frames[0].Document()
	if !ok {
		return nil, nil
	}
	outline := serpscope.ExtractOutline(a.classify, doc)
	builder.Merge(outline)
	return &serpscope.FrameStat{URL: frames[0].URL(), Counts: outline.Counts(), Retry: true}, nil
}

// wordCount returns the word count of the main content, 0 on any failure.
func (a *Aggregator) wordCount(ctx context.Context, session serpscope.Session) int {
	if a.content == nil {
		return 0
	}
	html, err := session.HTML(ctx)
	if err != nil {
		a.logger.Debug("reading page html", "url", session.URL(), "error", err)
		return 0
	}
	res, err := a.content.Extract(html)
	if err != nil {
		a.logger.Debug("extracting main content", "url", session.URL(), "error", err)
		return 0
	}
	return len(strings.Fields(res.Text))
}

// unreachable wraps err as an EUNREACHABLE application error unless it
// already carries a code.
func unreachable(pageURL string, err error) error {
	var e *serpscope.Error
	if errors.As(err, &e) {
		return err
	}
	return serpscope.Errorf(serpscope.EUNREACHABLE, "%s: %v", pageURL, err)
}

// reason returns a human-readable omission reason.
func reason(err error) string {
	var e *serpscope.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
