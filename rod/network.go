package rod

import (
	"context"
	"sync"
	"time"
)

// DefaultIdleWindow is how long the network must stay quiet to count as idle.
const DefaultIdleWindow = 500 * time.Millisecond

// networkTracker follows the requests of one page.
type networkTracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	urls     []string
	status   int
	lastSeen time.Time
	now      func() time.Time
}

func newNetworkTracker() *networkTracker {
	return &networkTracker{
		inflight: make(map[string]struct{}),
		lastSeen: time.Now(),
		now:      time.Now,
	}
}

func (t *networkTracker) started(id, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.urls = append(t.urls, url)
	t.lastSeen = t.now()
}

func (t *networkTracker) finished(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
	t.lastSeen = t.now()
}

// document records the status of the navigated document.
func (t *networkTracker) document(status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

func (t *networkTracker) Status() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *networkTracker) Requests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.urls...)
}

// idle reports whether no request is in flight and none finished within window.
func (t *networkTracker) idle(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastSeen) >= window
}

// waitIdle polls until the network is idle or timeout passes. Reaching the
// timeout is not an error; long-polling pages never go idle.
func (t *networkTracker) waitIdle(ctx context.Context, window, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(window / 5)
	defer tick.Stop()
	for {
		if t.idle(window) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-tick.C:
		}
	}
}
