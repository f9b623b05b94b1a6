package extract

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/fwojciec/serpscope"
	"golang.org/x/time/rate"
)

var _ serpscope.HostPacer = (*HostPacer)(nil)

// HostPacer holds every site to a fixed number of page loads per second.
// "www.example.com", "example.com" and "example.com:443" count as one site.
type HostPacer struct {
	mu    sync.Mutex
	sites map[string]*rate.Limiter
	limit rate.Limit
}

// NewHostPacer returns a HostPacer admitting perSecond loads per site. Zero
// or less turns pacing off.
func NewHostPacer(perSecond float64) *HostPacer {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &HostPacer{
		sites: make(map[string]*rate.Limiter),
		limit: limit,
	}
}

// Wait blocks until host may load another page or ctx is done.
func (p *HostPacer) Wait(ctx context.Context, host string) error {
	if p.limit == rate.Inf {
		return ctx.Err()
	}
	return p.site(siteKey(host)).Wait(ctx)
}

func (p *HostPacer) site(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.sites[key]
	if !ok {
		l = rate.NewLimiter(p.limit, 1)
		p.sites[key] = l
	}
	return l
}

// siteKey lowercases host and drops its port and "www." prefix.
func siteKey(host string) string {
	h := strings.ToLower(host)
	if name, _, err := net.SplitHostPort(h); err == nil {
		h = name
	}
	return strings.TrimPrefix(h, "www.")
}
