// Package slog provides logging decorators for the serpscope interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
)

// Ensure LoggingRenderer implements serpscope.Renderer.
var _ serpscope.Renderer = (*LoggingRenderer)(nil)

// LoggingRenderer wraps a Renderer with logging.
type LoggingRenderer struct {
	next   serpscope.Renderer
	logger *slog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer.
func NewLoggingRenderer(next serpscope.Renderer, logger *slog.Logger) *LoggingRenderer {
	return &LoggingRenderer{next: next, logger: logger}
}

// Render delegates to the wrapped renderer and logs the navigation.
func (r *LoggingRenderer) Render(ctx context.Context, url string, opts serpscope.RenderOptions) (s serpscope.Session, err error) {
	defer func(begin time.Time) {
		status := 0
		if s != nil {
			status = s.Status()
		}
		r.logger.Info("render",
			"url", url,
			"locale", opts.Locale,
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Render(ctx, url, opts)
}
