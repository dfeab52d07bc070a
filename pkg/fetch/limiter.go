package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limiter applies a per-domain request rate so enrichment never hammers a
// single review site.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a per-domain limiter.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the URL's domain has rate budget or the context ends.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrapf(err, "fetch: parse url %s", rawURL)
	}
	return l.domainLimiter(parsed.Host).Wait(ctx)
}

func (l *Limiter) domainLimiter(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[domain]
	if !ok {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[domain] = lim
	}
	return lim
}
