package mock

import (
	"context"

	"github.com/fwojciec/serpscope"
)

var (
	_ serpscope.ReportWriter     = (*ReportWriter)(nil)
	_ serpscope.RunStore         = (*RunStore)(nil)
	_ serpscope.IntentLabeler    = (*IntentLabeler)(nil)
	_ serpscope.ContentExtractor = (*ContentExtractor)(nil)
	_ serpscope.PageExtractor    = (*PageExtractor)(nil)
)

// ReportWriter is a mock implementation of serpscope.ReportWriter.
type ReportWriter struct {
	WriteReportFn func(ctx context.Context, r *serpscope.Report) error
}

func (w *ReportWriter) WriteReport(ctx context.Context, r *serpscope.Report) error {
	return w.WriteReportFn(ctx, r)
}

// RunStore is a mock implementation of serpscope.RunStore.
type RunStore struct {
	SaveRunFn  func(ctx context.Context, r *serpscope.Report) error
	FindRunFn  func(ctx context.Context, runID string) (*serpscope.Report, error)
	ListRunsFn func(ctx context.Context, limit int) ([]serpscope.RunSummary, error)
}

func (s *RunStore) SaveRun(ctx context.Context, r *serpscope.Report) error {
	return s.SaveRunFn(ctx, r)
}

func (s *RunStore) FindRun(ctx context.Context, runID string) (*serpscope.Report, error) {
	return s.FindRunFn(ctx, runID)
}

func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]serpscope.RunSummary, error) {
	return s.ListRunsFn(ctx, limit)
}

// IntentLabeler is a mock implementation of serpscope.IntentLabeler.
type IntentLabeler struct {
	LabelIntentFn func(ctx context.Context, query string, themes []serpscope.Theme) (serpscope.Intent, error)
}

func (l *IntentLabeler) LabelIntent(ctx context.Context, query string, themes []serpscope.Theme) (serpscope.Intent, error) {
	return l.LabelIntentFn(ctx, query, themes)
}

// ContentExtractor is a mock implementation of serpscope.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string) (*serpscope.ContentResult, error)
}

func (e *ContentExtractor) Extract(html string) (*serpscope.ContentResult, error) {
	return e.ExtractFn(html)
}

// PageExtractor is a mock implementation of serpscope.PageExtractor.
type PageExtractor struct {
	ExtractAllFn func(ctx context.Context, urls []string, progress serpscope.ExtractProgressFunc) ([]*serpscope.PageResult, []serpscope.PageOmission, error)
}

func (e *PageExtractor) ExtractAll(ctx context.Context, urls []string, progress serpscope.ExtractProgressFunc) ([]*serpscope.PageResult, []serpscope.PageOmission, error) {
	return e.ExtractAllFn(ctx, urls, progress)
}
