package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// BrowserFetcher renders pages in headless Chrome before returning their
// HTML. Competition detail pages are commonly script-rendered, so the plain
// reader path returns empty shells for them.
type BrowserFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

// BrowserOption configures the browser fetcher.
type BrowserOption func(*browserConfig)

type browserConfig struct {
	execPath  string
	userAgent string
	timeout   time.Duration
}

// WithExecPath points at a specific Chrome/Chromium binary.
func WithExecPath(path string) BrowserOption {
	return func(c *browserConfig) { c.execPath = path }
}

// WithBrowserTimeout bounds a single page render.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return func(c *browserConfig) { c.timeout = d }
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) BrowserOption {
	return func(c *browserConfig) { c.userAgent = ua }
}

// NewBrowserFetcher starts a shared headless browser allocator. Call Close
// when done.
func NewBrowserFetcher(opts ...BrowserOption) *BrowserFetcher {
	cfg := browserConfig{
		timeout: 45 * time.Second,
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.userAgent),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &BrowserFetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		timeout:     cfg.timeout,
	}
}

// Fetch navigates to the URL, waits for the document to settle, and returns
// the rendered HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(string, ...any) {}),
	)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, b.timeout)
	defer cancelRun()

	// Honor caller cancellation on top of the render timeout.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelRun()
		case <-done:
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: render %s", url)
	}

	return &Result{Success: true, Content: html, StatusCode: http.StatusOK}, nil
}

// Close releases the browser allocator.
func (b *BrowserFetcher) Close() {
	b.cancelAlloc()
}
