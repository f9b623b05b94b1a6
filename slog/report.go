package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
)

var (
	_ serpscope.ReportWriter  = (*LoggingReportWriter)(nil)
	_ serpscope.IntentLabeler = (*LoggingIntentLabeler)(nil)
)

// LoggingReportWriter wraps a ReportWriter with logging. Name identifies the
// destination in the log.
type LoggingReportWriter struct {
	next   serpscope.ReportWriter
	name   string
	logger *slog.Logger
}

// NewLoggingReportWriter creates a new LoggingReportWriter.
func NewLoggingReportWriter(next serpscope.ReportWriter, name string, logger *slog.Logger) *LoggingReportWriter {
	return &LoggingReportWriter{next: next, name: name, logger: logger}
}

// WriteReport delegates to the wrapped writer and logs the write.
func (w *LoggingReportWriter) WriteReport(ctx context.Context, r *serpscope.Report) (err error) {
	defer func(begin time.Time) {
		w.logger.Info("write report",
			"dest", w.name,
			"run", r.RunID,
			"pages", len(r.Pages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteReport(ctx, r)
}

// LoggingIntentLabeler wraps an IntentLabeler with logging.
type LoggingIntentLabeler struct {
	next   serpscope.IntentLabeler
	logger *slog.Logger
}

// NewLoggingIntentLabeler creates a new LoggingIntentLabeler.
func NewLoggingIntentLabeler(next serpscope.IntentLabeler, logger *slog.Logger) *LoggingIntentLabeler {
	return &LoggingIntentLabeler{next: next, logger: logger}
}

// LabelIntent delegates to the wrapped labeler and logs the label.
func (l *LoggingIntentLabeler) LabelIntent(ctx context.Context, query string, themes []serpscope.Theme) (intent serpscope.Intent, err error) {
	defer func(begin time.Time) {
		l.logger.Info("intent labeling",
			"query", query,
			"themes", len(themes),
			"intent", string(intent),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.LabelIntent(ctx, query, themes)
}
