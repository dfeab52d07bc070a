package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/medalline/enrich/internal/config"
	"github.com/medalline/enrich/internal/configstore"
	"github.com/medalline/enrich/internal/enrich"
	"github.com/medalline/enrich/internal/store"
	"github.com/medalline/enrich/pkg/extract"
	"github.com/medalline/enrich/pkg/fetch"
	"github.com/medalline/enrich/pkg/search"
)

// buildOrchestrator wires the orchestrator and its collaborators from
// config. The returned cleanup releases the browser when one was started.
func buildOrchestrator(cfg *config.Config) (*enrich.Orchestrator, func(), error) {
	cs, err := configstore.Load(cfg.Enrich.ConfigPath)
	if err != nil {
		return nil, nil, eris.Wrap(err, "build: load enrichment config")
	}

	reader := fetch.NewReaderClient(cfg.Reader.Key, fetch.WithReaderBaseURL(cfg.Reader.BaseURL))

	clientOpts := []fetch.ClientOption{
		fetch.WithRateLimit(cfg.Fetch.RatePerDomain, cfg.Fetch.Burst),
		fetch.WithCacheTTL(time.Duration(cfg.Fetch.CacheTTLMinutes) * time.Minute),
	}
	if cfg.Fetch.RespectRobots {
		clientOpts = append(clientOpts, fetch.WithRobots(cfg.Fetch.UserAgent))
	}

	cleanup := func() {}
	if cfg.Browser.Enabled {
		browser := fetch.NewBrowserFetcher(
			fetch.WithExecPath(cfg.Browser.ExecPath),
			fetch.WithBrowserTimeout(time.Duration(cfg.Browser.TimeoutSecs)*time.Second),
		)
		clientOpts = append(clientOpts, fetch.WithBrowser(browser))
		cleanup = browser.Close
	}

	fetcher := fetch.NewClient(reader, clientOpts...)
	searcher := search.NewClient(cfg.Search.Key, search.WithBaseURL(cfg.Search.BaseURL))
	extractor := extract.NewAnthropic(cfg.Anthropic.Key, cfg.Anthropic.Model)

	orch := enrich.New(cs, fetcher, extractor, searcher,
		enrich.WithSearchResults(cfg.Enrich.SearchResults),
	)
	return orch, cleanup, nil
}

// openStore opens the run-history database and ensures the schema exists.
func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
