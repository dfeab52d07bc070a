package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
)

// robotsChecker fetches and caches per-host robots.txt verdicts.
type robotsChecker struct {
	userAgent string
	http      *http.Client
	cache     *gocache.Cache
}

func newRobotsChecker(userAgent string) *robotsChecker {
	return &robotsChecker{
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
		cache:     gocache.New(1*time.Hour, 2*time.Hour),
	}
}

// Allowed reports whether the user agent may fetch the URL. Hosts without a
// reachable robots.txt allow everything.
func (r *robotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, eris.Wrapf(err, "fetch: parse url %s", rawURL)
	}

	group, err := r.group(ctx, parsed)
	if err != nil {
		return false, err
	}
	if group == nil {
		return true, nil
	}
	return group.Test(parsed.Path), nil
}

func (r *robotsChecker) group(ctx context.Context, parsed *url.URL) (*robotstxt.Group, error) {
	host := parsed.Scheme + "://" + parsed.Host
	if cached, ok := r.cache.Get(host); ok {
		if data, ok := cached.(*robotstxt.RobotsData); ok && data != nil {
			return data.FindGroup(r.userAgent), nil
		}
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create robots request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get robots.txt for %s", parsed.Host)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Missing or unreadable robots.txt: allow, and remember that.
		r.cache.Set(host, (*robotstxt.RobotsData)(nil), gocache.DefaultExpiration)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read robots.txt")
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse robots.txt")
	}

	r.cache.Set(host, data, gocache.DefaultExpiration)
	return data.FindGroup(r.userAgent), nil
}
