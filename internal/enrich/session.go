package enrich

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/medalline/enrich/internal/configstore"
	"github.com/medalline/enrich/internal/model"
)

// Session is the per-call mutable state of one enrichment: the working
// record and confidences, budget counters, and source bookkeeping. A session
// is created at the start of an enrich call and discarded after the result
// is assembled; it is never shared across calls.
type Session struct {
	ProductID   string
	ProductType string
	Category    string

	// Initial is the read-only snapshot the call started from.
	Initial     model.Fields
	Current     model.Fields
	Confidences map[string]float64
	Extra       map[string]any

	Limits configstore.BudgetLimits

	SearchesPerformed     int
	SourcesUsed           []string
	SourcesSearched       []string
	SourcesRejected       []model.RejectedSource
	MembersOnlySites      []string
	AwardsSearchCompleted bool

	StatusBefore model.Status
	ECPBefore    float64

	StartTime time.Time

	enriched    map[string]bool
	searched    map[string]bool
	used        map[string]bool
	membersOnly map[string]bool

	now func() time.Time
}

// newSession builds a session for one product, loading budget limits from
// the config store. This is the only construction that can fail; every
// later failure degrades to "no enrichment from this source".
func newSession(cfg *configstore.Store, productID, productType, category string, initial model.Fields, initialConf map[string]float64, now func() time.Time) (*Session, error) {
	if productType == "" {
		return nil, eris.New("enrich: product type is required")
	}
	if now == nil {
		now = time.Now
	}

	conf := make(map[string]float64, len(initialConf))
	for k, v := range initialConf {
		conf[k] = v
	}

	return &Session{
		ProductID:   productID,
		ProductType: productType,
		Category:    category,
		Initial:     initial.Clone(),
		Current:     initial.Clone(),
		Confidences: conf,
		Extra:       map[string]any{},
		Limits:      cfg.Budget(productType),
		StartTime:   now(),
		enriched:    map[string]bool{},
		searched:    map[string]bool{},
		used:        map[string]bool{},
		membersOnly: map[string]bool{},
		now:         now,
	}, nil
}

// Elapsed returns how long the session has been running.
func (s *Session) Elapsed() time.Duration {
	return s.now().Sub(s.StartTime)
}

// BudgetExceeded is true once any of the three budget dimensions is spent:
// searches, sources, or wall-clock time.
func (s *Session) BudgetExceeded() bool {
	return s.SearchesPerformed >= s.Limits.MaxSearches ||
		len(s.SourcesUsed) >= s.Limits.MaxSources ||
		s.Elapsed() >= time.Duration(s.Limits.MaxTimeSeconds)*time.Second
}

// RemainingBudget returns the non-negative remaining search and source
// counts.
func (s *Session) RemainingBudget() (searches, sources int) {
	searches = s.Limits.MaxSearches - s.SearchesPerformed
	if searches < 0 {
		searches = 0
	}
	sources = s.Limits.MaxSources - len(s.SourcesUsed)
	if sources < 0 {
		sources = 0
	}
	return searches, sources
}

// RefundSearch returns a search slot spent on a members-only source and
// records the site. Idempotent per URL: a URL already recorded neither
// double-refunds nor re-appends.
func (s *Session) RefundSearch(url string) {
	if s.membersOnly[url] {
		return
	}
	if s.SearchesPerformed > 0 {
		s.SearchesPerformed--
	}
	s.RecordMembersOnly(url)
}

// RecordMembersOnly tracks a gated site without touching the search counter,
// for steps whose searches are not charged against the main budget.
func (s *Session) RecordMembersOnly(url string) {
	if s.membersOnly[url] {
		return
	}
	s.membersOnly[url] = true
	s.MembersOnlySites = append(s.MembersOnlySites, url)
}

// MarkSearched records a URL as visited by search. Returns false when the
// URL was already recorded, so callers skip duplicates across templates.
func (s *Session) MarkSearched(url string) bool {
	if s.searched[url] {
		return false
	}
	s.searched[url] = true
	s.SourcesSearched = append(s.SourcesSearched, url)
	return true
}

// RecordSourceUsed counts a source whose data reached the working record.
func (s *Session) RecordSourceUsed(url string) {
	if s.used[url] {
		return
	}
	s.used[url] = true
	s.SourcesUsed = append(s.SourcesUsed, url)
}

// RecordRejection tracks a source whose extraction failed identity
// validation.
func (s *Session) RecordRejection(url, reason string) {
	s.SourcesRejected = append(s.SourcesRejected, model.RejectedSource{URL: url, Reason: reason})
}

// MarkEnriched accumulates deduplicated enriched field names.
func (s *Session) MarkEnriched(names []string) {
	for _, n := range names {
		s.enriched[n] = true
	}
}

// EnrichedFields returns the deduplicated field names that gained data, in
// stable order.
func (s *Session) EnrichedFields() []string {
	out := make([]string, 0, len(s.enriched))
	for n := range s.enriched {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// MergeExtra folds unrecognized extractor fields into the session's extra
// bag without overwriting earlier entries.
func (s *Session) MergeExtra(extra map[string]any) {
	for k, v := range extra {
		if _, ok := s.Extra[k]; !ok {
			s.Extra[k] = v
		}
	}
}
