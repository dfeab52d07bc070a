// Package enrich drives the multi-step product enrichment flow: detail-page
// extraction, producer-page search, the review-site loop, and the awards
// search, coordinated through a budgeted per-call session.
package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/medalline/enrich/internal/configstore"
	"github.com/medalline/enrich/internal/match"
	"github.com/medalline/enrich/internal/merge"
	"github.com/medalline/enrich/internal/model"
	"github.com/medalline/enrich/internal/paywall"
	"github.com/medalline/enrich/internal/quality"
	"github.com/medalline/enrich/pkg/extract"
	"github.com/medalline/enrich/pkg/fetch"
	"github.com/medalline/enrich/pkg/search"
)

const (
	// detailConfidence pins every field from the competition detail page:
	// the detail page is the authoritative source regardless of what the
	// extractor reports.
	detailConfidence = 0.95

	// producerBoost is added to field confidences from a validated
	// producer page, capped at detailConfidence.
	producerBoost = 0.10

	// maxProducerAttempts bounds how many ranked producer URLs are tried.
	maxProducerAttempts = 3

	// maxAwardsSources bounds how many award-search results are consulted
	// on the dedicated slot.
	maxAwardsSources = 2

	// defaultSearchResults is how many results each search requests.
	defaultSearchResults = 5

	// detailURLField is where discovery supplies the competition detail
	// page inside the initial data.
	detailURLField = "detail_url"
)

// step enumerates the orchestration states.
type step int

const (
	stepInit step = iota
	stepDetailExtraction
	stepProducerSearch
	stepReviewLoop
	stepAwardsSearch
	stepDone
)

var stepNames = map[step]string{
	stepInit:             "init",
	stepDetailExtraction: "detail_extraction",
	stepProducerSearch:   "producer_search",
	stepReviewLoop:       "review_loop",
	stepAwardsSearch:     "awards_search",
	stepDone:             "done",
}

func (s step) String() string { return stepNames[s] }

// transition returns the state following cur. The flow is linear; each step
// decides internally whether its work applies.
func transition(cur step) step {
	if cur >= stepDone {
		return stepDone
	}
	return cur + 1
}

// Request is one enrichment call.
type Request struct {
	ProductID          string
	ProductType        string
	Category           string
	InitialData        model.Fields
	InitialConfidences map[string]float64
}

// Orchestrator runs enrichment requests. It holds only injected
// collaborators and configuration, so one orchestrator serves any number of
// concurrent calls.
type Orchestrator struct {
	cfg       *configstore.Store
	fetcher   fetch.Fetcher
	extractor extract.Extractor
	searcher  search.Provider
	gate      *quality.Gate
	validator *match.Validator
	detector  *paywall.Detector

	searchResults int
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithSearchResults overrides how many results each search requests.
func WithSearchResults(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.searchResults = n
		}
	}
}

// New creates an orchestrator around the external collaborators.
func New(cfg *configstore.Store, fetcher fetch.Fetcher, extractor extract.Extractor, searcher search.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:           cfg,
		fetcher:       fetcher,
		extractor:     extractor,
		searcher:      searcher,
		gate:          quality.NewGate(cfg),
		validator:     match.NewValidator(),
		detector:      paywall.NewDetector(),
		searchResults: defaultSearchResults,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enrich runs the full four-step flow for one product and returns the best
// available merged data. Only session construction can fail; every
// per-source failure degrades to "this source contributed nothing".
func (o *Orchestrator) Enrich(ctx context.Context, req Request) (*model.EnrichmentResult, error) {
	sess, err := newSession(o.cfg, req.ProductID, req.ProductType, req.Category, req.InitialData, req.InitialConfidences, nil)
	if err != nil {
		return &model.EnrichmentResult{
			ProductID:   req.ProductID,
			Success:     false,
			ProductData: req.InitialData,
			Confidences: req.InitialConfidences,
			Error:       err.Error(),
		}, err
	}

	log := zap.L().With(
		zap.String("product_id", req.ProductID),
		zap.String("product_type", req.ProductType),
	)
	log.Info("enrich: starting")

	for st := stepInit; st != stepDone; st = transition(st) {
		searchesLeft, sourcesLeft := sess.RemainingBudget()
		log.Debug("enrich: step",
			zap.String("step", st.String()),
			zap.Int("searches_remaining", searchesLeft),
			zap.Int("sources_remaining", sourcesLeft),
		)

		switch st {
		case stepInit:
			before := o.assess(sess)
			sess.StatusBefore = before.Status
			sess.ECPBefore = before.ECPTotal
		case stepDetailExtraction:
			o.runDetailExtraction(ctx, sess, log)
		case stepProducerSearch:
			o.runProducerSearch(ctx, sess, log)
		case stepReviewLoop:
			o.runReviewLoop(ctx, sess, log)
		case stepAwardsSearch:
			o.runAwardsSearch(ctx, sess, log)
		}
	}

	result := o.assemble(sess)
	log.Info("enrich: finished",
		zap.String("status_before", result.StatusBefore.String()),
		zap.String("status_after", result.StatusAfter.String()),
		zap.Int("fields_enriched", len(result.FieldsEnriched)),
		zap.Int("searches_performed", result.SearchesPerformed),
		zap.Float64("elapsed_seconds", result.ElapsedSeconds),
	)
	return result, nil
}

func (o *Orchestrator) assess(s *Session) model.QualityAssessment {
	return o.gate.Assess(s.Current, s.ProductType, s.Confidences, s.Category)
}

// complete reports whether the working record has reached the COMPLETE
// tier, which skips the producer search and stops the review loop.
func (o *Orchestrator) complete(s *Session) bool {
	return o.assess(s).Status >= model.StatusComplete
}

// runDetailExtraction fetches the competition detail page when discovery
// supplied one. The page is script-rendered, so it goes through the browser
// path, and its fields are merged at a pinned confidence. Direct navigation
// consumes no search budget.
func (o *Orchestrator) runDetailExtraction(ctx context.Context, s *Session, log *zap.Logger) {
	detailURL := s.Initial.GetString(detailURLField)
	if detailURL == "" {
		return
	}

	res, err := o.fetcher.Fetch(ctx, detailURL, fetch.WithRender())
	if err != nil {
		log.Warn("enrich: detail page fetch failed", zap.String("url", detailURL), zap.Error(err))
		return
	}
	if o.detector.Classify(res.Content, res.StatusCode) {
		// No search was charged for direct navigation; just record the site.
		s.RecordMembersOnly(detailURL)
		log.Info("enrich: detail page is members-only", zap.String("url", detailURL))
		return
	}
	if !res.Success {
		log.Warn("enrich: detail page unavailable", zap.String("url", detailURL), zap.Int("status", res.StatusCode))
		return
	}

	ext, err := o.extractor.Extract(ctx, res.Content, detailURL, s.ProductType, nil, false)
	if err != nil || !ext.Success || len(ext.Products) == 0 {
		log.Warn("enrich: detail page extraction failed", zap.String("url", detailURL), zap.Error(err))
		return
	}

	fields, extra := model.Coerce(ext.Products[0].Fields, extract.KnownFields(s.ProductType))
	conf := make(map[string]float64, len(fields))
	for name := range fields {
		conf[name] = detailConfidence
	}

	o.applyMerge(s, fields, conf, extra, detailURL)
	log.Info("enrich: detail page merged", zap.String("url", detailURL), zap.Int("fields", len(fields)))
}

// runProducerSearch looks for the producer's official product page:
// one search, ranked results, up to three attempts, first validated hit
// wins a confidence boost.
func (o *Orchestrator) runProducerSearch(ctx context.Context, s *Session, log *zap.Logger) {
	if o.complete(s) || s.BudgetExceeded() {
		return
	}

	brand := s.Current.GetString("brand")
	name := s.Current.GetString("name")
	query := strings.Join(strings.Fields(brand+" "+name+" official"), " ")
	if brand == "" && name == "" {
		return
	}

	s.SearchesPerformed++
	results, err := o.searcher.Search(ctx, query, o.searchResults)
	if err != nil {
		log.Warn("enrich: producer search failed", zap.String("query", query), zap.Error(err))
		return
	}

	ranked := RankProducerURLs(results, brand, s.Current.GetString("producer"))
	attempts := 0
	for _, r := range ranked {
		if attempts >= maxProducerAttempts {
			break
		}
		attempts++
		s.MarkSearched(r.URL)

		res, err := o.fetcher.Fetch(ctx, r.URL)
		if err != nil {
			log.Debug("enrich: producer page fetch failed", zap.String("url", r.URL), zap.Error(err))
			continue
		}
		if o.checkAndRefund(s, r.URL, res) {
			continue
		}
		if !res.Success {
			continue
		}

		ext, err := o.extractor.Extract(ctx, res.Content, r.URL, s.ProductType, nil, false)
		if err != nil || !ext.Success || len(ext.Products) == 0 {
			log.Debug("enrich: producer page extraction failed", zap.String("url", r.URL), zap.Error(err))
			continue
		}

		product := ext.Products[0]
		fields, extra := model.Coerce(product.Fields, extract.KnownFields(s.ProductType))
		if ok, reason := o.validator.Validate(s.Current, fields); !ok {
			s.RecordRejection(r.URL, reason)
			log.Debug("enrich: producer page rejected", zap.String("url", r.URL), zap.String("reason", reason))
			continue
		}

		conf := boostedConfidences(fields, product)
		o.applyMerge(s, fields, conf, extra, r.URL)
		log.Info("enrich: producer page merged", zap.String("url", r.URL), zap.Int("fields", len(fields)))
		return
	}
}

// runReviewLoop walks the configured search templates in descending
// priority, spending the remaining budget on review-site sources until the
// record is complete.
func (o *Orchestrator) runReviewLoop(ctx context.Context, s *Session, log *zap.Logger) {
	if o.complete(s) {
		return
	}

	templates := o.cfg.Templates(s.ProductType)
	if len(templates) == 0 {
		log.Warn("enrich: no search templates configured", zap.String("product_type", s.ProductType))
		return
	}

	for _, tpl := range templates {
		if s.BudgetExceeded() || o.complete(s) {
			return
		}

		query := BuildQuery(tpl.Search, s.Current)
		if query == "" {
			continue
		}

		s.SearchesPerformed++
		results, err := o.searcher.Search(ctx, query, o.searchResults)
		if err != nil {
			log.Warn("enrich: review search failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, r := range results {
			if s.BudgetExceeded() || o.complete(s) {
				return
			}
			if !s.MarkSearched(r.URL) {
				continue
			}
			o.consumeReviewSource(ctx, s, r.URL, tpl.TargetFields, log)
		}
	}
}

// consumeReviewSource fetches, gate-checks, extracts, validates, and merges
// one review-site URL. Every failure path leaves the session consistent and
// moves on.
func (o *Orchestrator) consumeReviewSource(ctx context.Context, s *Session, url string, targetFields []string, log *zap.Logger) {
	res, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		// The attempt was made; the search slot stays spent.
		log.Debug("enrich: review fetch failed", zap.String("url", url), zap.Error(err))
		return
	}
	if o.checkAndRefund(s, url, res) {
		log.Info("enrich: members-only source refunded", zap.String("url", url))
		return
	}
	if !res.Success {
		return
	}

	ext, err := o.extractor.Extract(ctx, res.Content, url, s.ProductType, targetFields, false)
	if err != nil || !ext.Success || len(ext.Products) == 0 {
		log.Debug("enrich: review extraction failed", zap.String("url", url), zap.Error(err))
		return
	}

	product := ext.Products[0]
	fields, extra := model.Coerce(product.Fields, extract.KnownFields(s.ProductType))
	if ok, reason := o.validator.Validate(s.Current, fields); !ok {
		s.RecordRejection(url, reason)
		log.Debug("enrich: review source rejected", zap.String("url", url), zap.String("reason", reason))
		return
	}

	o.applyMerge(s, fields, fieldConfidences(fields, product), extra, url)
	log.Info("enrich: review source merged", zap.String("url", url), zap.Int("fields", len(fields)))
}

// runAwardsSearch always executes exactly once per call on a dedicated
// search slot that never touches the main counters, even when the record is
// already complete.
func (o *Orchestrator) runAwardsSearch(ctx context.Context, s *Session, log *zap.Logger) {
	if s.AwardsSearchCompleted {
		return
	}
	// The dedicated slot is spent from here on, results or not.
	defer func() { s.AwardsSearchCompleted = true }()

	brand := s.Current.GetString("brand")
	name := s.Current.GetString("name")
	if brand == "" && name == "" {
		return
	}
	query := strings.Join(strings.Fields(brand+" "+name+" awards medals competition"), " ")

	results, err := o.searcher.Search(ctx, query, o.searchResults)
	if err != nil {
		log.Warn("enrich: awards search failed", zap.String("query", query), zap.Error(err))
		return
	}

	consulted := 0
	for _, r := range results {
		if consulted >= maxAwardsSources {
			break
		}
		consulted++
		s.MarkSearched(r.URL)

		res, err := o.fetcher.Fetch(ctx, r.URL)
		if err != nil {
			log.Debug("enrich: awards fetch failed", zap.String("url", r.URL), zap.Error(err))
			continue
		}
		if o.detector.Classify(res.Content, res.StatusCode) {
			// No charge was taken for the dedicated slot, so no refund.
			s.RecordMembersOnly(r.URL)
			continue
		}
		if !res.Success {
			continue
		}

		ext, err := o.extractor.Extract(ctx, res.Content, r.URL, s.ProductType, []string{"awards"}, false)
		if err != nil || !ext.Success || len(ext.Products) == 0 {
			continue
		}

		product := ext.Products[0]
		fields, extra := model.Coerce(product.Fields, extract.KnownFields(s.ProductType))
		if ok, reason := o.validator.Validate(s.Current, fields); !ok {
			s.RecordRejection(r.URL, reason)
			continue
		}
		o.applyMerge(s, fields, fieldConfidences(fields, product), extra, r.URL)
	}
}

// checkAndRefund classifies a fetched page and, when it is gated, refunds
// the search slot and records the site. Returns true when the page is gated.
func (o *Orchestrator) checkAndRefund(s *Session, url string, res *fetch.Result) bool {
	if !o.detector.Classify(res.Content, res.StatusCode) {
		return false
	}
	s.RefundSearch(url)
	return true
}

// applyMerge folds one validated extraction into the session.
func (o *Orchestrator) applyMerge(s *Session, fields model.Fields, conf map[string]float64, extra map[string]any, sourceURL string) {
	merged, mergedConf, enriched := merge.Merge(s.Current, fields, s.Confidences, conf)
	s.Current = merged
	s.Confidences = mergedConf
	s.MergeExtra(extra)
	s.MarkEnriched(enriched)
	s.RecordSourceUsed(sourceURL)
}

// assemble builds the result from the finished session.
func (o *Orchestrator) assemble(s *Session) *model.EnrichmentResult {
	after := o.assess(s)
	enriched := s.EnrichedFields()

	return &model.EnrichmentResult{
		ProductID:             s.ProductID,
		Success:               true,
		ProductData:           s.Current,
		Confidences:           s.Confidences,
		Extra:                 s.Extra,
		SourcesUsed:           s.SourcesUsed,
		SourcesSearched:       s.SourcesSearched,
		SourcesRejected:       s.SourcesRejected,
		MembersOnlySites:      s.MembersOnlySites,
		FieldsEnriched:        enriched,
		StatusBefore:          s.StatusBefore,
		StatusAfter:           after.Status,
		ECPBefore:             s.ECPBefore,
		ECPAfter:              after.ECPTotal,
		SearchesPerformed:     s.SearchesPerformed,
		AwardsSearchCompleted: s.AwardsSearchCompleted,
		ElapsedSeconds:        s.Elapsed().Seconds(),
	}
}

// boostedConfidences applies the producer-page boost to per-field
// confidences, capped at the detail-page level.
func boostedConfidences(fields model.Fields, product extract.Product) map[string]float64 {
	conf := fieldConfidences(fields, product)
	for name, c := range conf {
		c += producerBoost
		if c > detailConfidence {
			c = detailConfidence
		}
		conf[name] = c
	}
	return conf
}

// fieldConfidences resolves a confidence for every coerced field, falling
// back to the product-level confidence when the extractor gave no per-field
// value.
func fieldConfidences(fields model.Fields, product extract.Product) map[string]float64 {
	conf := make(map[string]float64, len(fields))
	for name := range fields {
		if c, ok := product.FieldConfidences[name]; ok {
			conf[name] = c
		} else {
			conf[name] = product.Confidence
		}
	}
	return conf
}
