// Package probe collects evidence of results page features.
//
// Evidence comes from two channels. The structured channel reads the
// results API listing. The rendered channel loads the results page itself
// and looks for structural markers; for the AI-generated overview it also
// records weak signals (localized labels in the visible text and background
// requests to the overview backend). Weak signals never count as a
// structural observation; fusing them is left to serpscope.Reconciler.
package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
)

// Probe defaults.
const (
	DefaultAIOverviewFallbackHL = "en"
	DefaultSERPWait             = 1500 * time.Millisecond
	DefaultExtraWait            = 2 * time.Second
	DefaultSettleTimeout        = 20 * time.Second
)

// DefaultSERPScroll is the bounce scroll run on the results page to reveal
// collapsed features.
var DefaultSERPScroll = serpscope.ScrollPlan{
	Steps:       14,
	StepPx:      700,
	Pause:       160 * time.Millisecond,
	TurnAfterPx: 2800,
}

// Result is the evidence gathered for one query.
type Result struct {
	Observations serpscope.Observations

	// AIOverviewProbeUsed reports whether the dedicated overview query
	// succeeded; AIOverviewProbeHL is the interface language it used.
	AIOverviewProbeUsed bool
	AIOverviewProbeHL   string

	// RenderedSERP reports whether the results page was rendered and
	// inspected.
	RenderedSERP bool
	SERPURL      string
}

// Prober gathers feature evidence.
type Prober struct {
	search   serpscope.SearchClient
	renderer serpscope.Renderer
	detector serpscope.MarkerDetector
	logger   *slog.Logger

	alwaysProbeAIOverview bool
	aioFallbackHL         string
	serpWait              time.Duration
	extraWait             time.Duration
	settleTimeout         time.Duration
	scroll                serpscope.ScrollPlan
}

// Option configures a Prober.
type Option func(*Prober)

// WithRenderedPage enables the rendered channel: the results page is
// rendered with r and inspected with d.
func WithRenderedPage(r serpscope.Renderer, d serpscope.MarkerDetector) Option {
	return func(p *Prober) {
		p.renderer = r
		p.detector = d
	}
}

// WithAlwaysProbeAIOverview issues the dedicated overview query for English
// locales too whenever the listing does not declare an overview.
func WithAlwaysProbeAIOverview(v bool) Option {
	return func(p *Prober) { p.alwaysProbeAIOverview = v }
}

// WithAIOverviewFallbackHL sets the interface language of the dedicated
// overview query for non-English locales.
func WithAIOverviewFallbackHL(hl string) Option {
	return func(p *Prober) { p.aioFallbackHL = hl }
}

// WithSERPWait sets the pause after the results page loads.
func WithSERPWait(d time.Duration) Option {
	return func(p *Prober) { p.serpWait = d }
}

// WithExtraWait sets the pause after the results page scroll.
func WithExtraWait(d time.Duration) Option {
	return func(p *Prober) { p.extraWait = d }
}

// WithSettleTimeout bounds the wait for the results page network to go quiet.
func WithSettleTimeout(d time.Duration) Option {
	return func(p *Prober) { p.settleTimeout = d }
}

// WithScrollPlan sets the results page scroll.
func WithScrollPlan(plan serpscope.ScrollPlan) Option {
	return func(p *Prober) { p.scroll = plan }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) { p.logger = logger }
}

// NewProber creates a Prober reading the structured channel from search.
func NewProber(search serpscope.SearchClient, opts ...Option) *Prober {
	p := &Prober{
		search:        search,
		aioFallbackHL: DefaultAIOverviewFallbackHL,
		serpWait:      DefaultSERPWait,
		extraWait:     DefaultExtraWait,
		settleTimeout: DefaultSettleTimeout,
		scroll:        DefaultSERPScroll,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// Probe gathers evidence for q from its listing. Failures of the dedicated
// overview query and of the results page render are logged and leave the
// affected channel empty. The error is non-nil only when ctx is canceled.
func (p *Prober) Probe(ctx context.Context, q serpscope.SearchQuery, listing *serpscope.SearchResult) (*Result, error) {
	var raw []byte
	if listing != nil {
		raw = listing.Raw
	}

	res := &Result{Observations: make(serpscope.Observations, len(serpscope.Features))}
	for f, ok := range StructuredFeatures(raw) {
		res.Observations.Update(f, func(o *serpscope.FeatureObservation) { o.FromStructuredSource = ok })
	}

	if !res.Observations.Get(serpscope.AIOverview).FromStructuredSource && (p.alwaysProbeAIOverview || !q.IsEnglish()) {
		p.probeOverview(ctx, q, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.renderer != nil && p.detector != nil {
		res.SERPURL = GoogleURL(raw)
		if res.SERPURL == "" {
			res.SERPURL = q.SearchURL()
		}
		if err := p.inspect(ctx, q, res); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("results page verification failed", "url", res.SERPURL, "error", err)
		}
	}
	return res, nil
}

// probeOverview issues the dedicated overview query.
func (p *Prober) probeOverview(ctx context.Context, q serpscope.SearchQuery, res *Result) {
	if !q.IsEnglish() {
		q.HL = p.aioFallbackHL
	}
	aio, err := p.search.SearchAIOverview(ctx, q)
	if err != nil {
		p.logger.Debug("overview probe failed", "hl", q.HL, "error", err)
		return
	}
	res.AIOverviewProbeUsed = true
	res.AIOverviewProbeHL = q.HL
	if aio != nil && OverviewPresent(aio.Raw) {
		res.Observations.Update(serpscope.AIOverview, func(o *serpscope.FeatureObservation) {
			o.FromStructuredSource = true
		})
	}
}

// inspect renders the results page and records the rendered channel. The
// observations are only updated once the whole inspection succeeded.
func (p *Prober) inspect(ctx context.Context, q serpscope.SearchQuery, res *Result) error {
	session, err := p.renderer.Render(ctx, res.SERPURL, serpscope.RenderOptions{
		Locale:         q.HL,
		DismissConsent: true,
	})
	if err != nil {
		return fmt.Errorf("rendering results page: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.logger.Warn("closing results page session", "error", err)
		}
	}()

	if err := session.Settle(ctx, p.settleTimeout); err != nil {
		return err
	}
	if err := pause(ctx, p.serpWait); err != nil {
		return err
	}
	if err := session.Scroll(ctx, p.scroll); err != nil {
		return fmt.Errorf("scrolling results page: %w", err)
	}
	if err := pause(ctx, p.extraWait); err != nil {
		return err
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return fmt.Errorf("reading results page: %w", err)
	}
	markers, err := p.detector.DetectMarkers(html)
	if err != nil {
		return err
	}
	text, err := session.VisibleText(ctx)
	if err != nil {
		return fmt.Errorf("reading results page text: %w", err)
	}

	for _, f := range serpscope.Features {
		if markers[f] {
			res.Observations.Update(f, func(o *serpscope.FeatureObservation) { o.FromRenderedPage = true })
		}
	}
	res.Observations.Update(serpscope.AIOverview, func(o *serpscope.FeatureObservation) {
		if OverviewText(text) {
			o.AddSignal(serpscope.SignalTextPattern)
		}
		if OverviewNetwork(session.Requests()) {
			o.AddSignal(serpscope.SignalNetwork)
		}
	})
	res.RenderedSERP = true
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
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
