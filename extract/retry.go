package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
)

// DefaultRetryDelays returns the backoff delays for render retries: 1s, 2s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// renderWithRetry renders url, retrying failed navigations with the given
// backoff delays. A session that loads with an error status is returned as
// is; only navigation errors are retried.
func renderWithRetry(ctx context.Context, r serpscope.Renderer, url string, opts serpscope.RenderOptions, delays []time.Duration, logger *slog.Logger) (serpscope.Session, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		session, err := r.Render(ctx, url, opts)
		if err == nil {
			return session, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.Debug("retrying render", "url", url, "attempt", attempt+2, "error", err)

		if err := wait(ctx, delays[attempt]); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// wait pauses for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
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
