// Package brief runs a complete query brief: the results listing, the
// competing pages' outlines, recurring themes, search intent and the fused
// feature verdicts.
package brief

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/bloom"
	"github.com/fwojciec/serpscope/probe"
	"github.com/google/uuid"
)

// Target dedup filter sizing.
const (
	targetFilterSize   = 1000
	targetFilterFPRate = 1e-6
)

// FeatureProber gathers feature evidence for a query.
type FeatureProber interface {
	Probe(ctx context.Context, q serpscope.SearchQuery, listing *serpscope.SearchResult) (*probe.Result, error)
}

// Builder runs briefs.
type Builder struct {
	search  serpscope.SearchClient
	pages   serpscope.PageExtractor
	prober  FeatureProber
	labeler serpscope.IntentLabeler
	writers []serpscope.ReportWriter
	store   serpscope.RunStore
	logger  *slog.Logger

	reconciler serpscope.Reconciler
	maxUnique  int
	themeLimit int

	now   func() time.Time
	newID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithIntentLabeler sets the intent labeler. Labeling errors fall back to
// the keyword heuristic.
func WithIntentLabeler(l serpscope.IntentLabeler) Option {
	return func(b *Builder) { b.labeler = l }
}

// WithReportWriters adds writers called with every finished report.
func WithReportWriters(w ...serpscope.ReportWriter) Option {
	return func(b *Builder) { b.writers = append(b.writers, w...) }
}

// WithRunStore saves every finished report.
func WithRunStore(s serpscope.RunStore) Option {
	return func(b *Builder) { b.store = s }
}

// WithReconciler sets the fusion policy.
func WithReconciler(r serpscope.Reconciler) Option {
	return func(b *Builder) { b.reconciler = r }
}

// WithMaxUnique caps the number of distinct target pages. Zero keeps every
// organic result.
func WithMaxUnique(n int) Option {
	return func(b *Builder) { b.maxUnique = n }
}

// WithThemeLimit sets the number of top themes.
func WithThemeLimit(n int) Option {
	return func(b *Builder) { b.themeLimit = n }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithClock sets the clock and run ID source.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(b *Builder) {
		b.now = now
		b.newID = newID
	}
}

// NewBuilder creates a Builder.
func NewBuilder(search serpscope.SearchClient, pages serpscope.PageExtractor, prober FeatureProber, opts ...Option) *Builder {
	b := &Builder{
		search:     search,
		pages:      pages,
		prober:     prober,
		labeler:    serpscope.HeuristicIntentLabeler{},
		reconciler: serpscope.Reconciler{Policy: serpscope.PolicyHybridLenient},
		themeLimit: serpscope.DefaultThemeLimit,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b
}

// Run executes a brief for q. When the report was built but a writer or the
// store failed, Run returns both the report and the error.
func (b *Builder) Run(ctx context.Context, q serpscope.SearchQuery, progress serpscope.ExtractProgressFunc) (*serpscope.Report, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	listing, err := b.search.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", q.Query, err)
	}

	maxUnique := b.maxUnique
	if maxUnique == 0 {
		maxUnique = q.Num
	}
	targets := SelectTargets(probe.OrganicURLs(listing.Raw), maxUnique)
	b.logger.Info("selected targets", "query", q.Query, "targets", len(targets))

	pages, omitted, err := b.pages.ExtractAll(ctx, targets, progress)
	if err != nil {
		return nil, fmt.Errorf("extracting pages: %w", err)
	}

	evidence, err := b.prober.Probe(ctx, q, listing)
	if err != nil {
		return nil, fmt.Errorf("probing features: %w", err)
	}

	r := &serpscope.Report{
		RunID:               b.newID(),
		CreatedAt:           b.now().UTC(),
		Query:               q,
		Observations:        evidence.Observations,
		AIOverviewProbeUsed: evidence.AIOverviewProbeUsed,
		AIOverviewProbeHL:   evidence.AIOverviewProbeHL,
		RenderedSERP:        evidence.RenderedSERP,
		SERPURL:             evidence.SERPURL,
		Targets:             targets,
		Pages:               pages,
		Omitted:             omitted,
	}
	if r.SERPURL == "" {
		r.SERPURL = probe.GoogleURL(listing.Raw)
	}
	r.Refuse(b.reconciler)
	r.TopThemes = serpscope.TopThemes(r.Outlines(), b.themeLimit)
	r.Intent = b.intent(ctx, q.Query, r.TopThemes)

	return r, b.publish(ctx, r)
}

// intent labels the query, falling back to the keyword heuristic.
func (b *Builder) intent(ctx context.Context, query string, themes []serpscope.Theme) serpscope.Intent {
	intent, err := b.labeler.LabelIntent(ctx, query, themes)
	if err != nil {
		b.logger.Warn("intent labeling failed, using keyword heuristic", "error", err)
		return serpscope.DetectIntent(themes)
	}
	return intent
}

// publish saves and writes r, attempting every destination.
func (b *Builder) publish(ctx context.Context, r *serpscope.Report) error {
	var errs []error
	if b.store != nil {
		if err := b.store.SaveRun(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("saving run: %w", err))
		}
	}
	for _, w := range b.writers {
		if err := w.WriteReport(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("writing report: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SelectTargets returns the distinct URLs in listing order, at most limit
// of them. A non-positive limit keeps every URL.
func SelectTargets(urls []string, limit int) []string {
	filter := bloom.NewFilter(targetFilterSize, targetFilterFPRate)
	targets := make([]string, 0, len(urls))
	for _, u := range urls {
		if limit > 0 && len(targets) >= limit {
			break
		}
		if filter.AddNew(u) {
			targets = append(targets, u)
		}
	}
	return targets
}
