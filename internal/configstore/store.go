// Package configstore loads and serves the per-product-type enrichment
// configuration: quality gate rubrics, prioritized search templates, and
// budget limits. Built-in defaults ship embedded; an override file replaces
// entries per product type. A Store is read-only after Load, so sessions can
// share it without locking.
package configstore

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/medalline/enrich/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Default budget limits applied when a product type has no override.
const (
	DefaultMaxSearches    = 6
	DefaultMaxSources     = 8
	DefaultMaxTimeSeconds = 180
)

// TierRule is the requirement set for one quality tier: every required
// field must be populated, plus at least AnyOfCount of the AnyOf fields.
type TierRule struct {
	Required   []string `yaml:"required"`
	AnyOf      []string `yaml:"any_of"`
	AnyOfCount int      `yaml:"any_of_count"`
}

// Rubric holds the tier rules for one product type, in ascending strictness.
type Rubric struct {
	Skeleton TierRule `yaml:"skeleton"`
	Partial  TierRule `yaml:"partial"`
	Complete TierRule `yaml:"complete"`
	Verified TierRule `yaml:"verified"`
}

// Tier returns the rule for a status tier.
func (r Rubric) Tier(s model.Status) TierRule {
	switch s {
	case model.StatusPartial:
		return r.Partial
	case model.StatusComplete:
		return r.Complete
	case model.StatusVerified:
		return r.Verified
	default:
		return r.Skeleton
	}
}

// AllFields returns the union of every tier's required and any-of fields.
func (r Rubric) AllFields() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, tier := range []TierRule{r.Skeleton, r.Partial, r.Complete, r.Verified} {
		add(tier.Required)
		add(tier.AnyOf)
	}
	sort.Strings(out)
	return out
}

// Template is one prioritized review-site search. TargetFields narrows the
// extraction schema; empty means the full default schema.
type Template struct {
	Priority     int      `yaml:"priority"`
	Search       string   `yaml:"search"`
	TargetFields []string `yaml:"target_fields"`
}

// BudgetLimits bounds external work per enrichment call.
type BudgetLimits struct {
	MaxSearches    int `yaml:"max_searches"`
	MaxSources     int `yaml:"max_sources"`
	MaxTimeSeconds int `yaml:"max_time_seconds"`
}

type fileSchema struct {
	QualityGates map[string]Rubric       `yaml:"quality_gates"`
	Templates    map[string][]Template   `yaml:"enrichment_templates"`
	Budgets      map[string]BudgetLimits `yaml:"budgets"`
}

// Store is the read-only configuration source consulted by sessions.
type Store struct {
	rubrics   map[string]Rubric
	templates map[string][]Template
	budgets   map[string]BudgetLimits
}

// Default builds a Store from the embedded defaults only.
func Default() *Store {
	s, err := load(nil)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return s
}

// Load builds a Store from the embedded defaults, overlaid with the YAML
// file at path when path is non-empty.
func Load(path string) (*Store, error) {
	var override []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "configstore: read override %s", path)
		}
		override = data
	}
	return load(override)
}

func load(override []byte) (*Store, error) {
	var base fileSchema
	if err := yaml.Unmarshal(defaultsYAML, &base); err != nil {
		return nil, eris.Wrap(err, "configstore: parse embedded defaults")
	}

	s := &Store{
		rubrics:   base.QualityGates,
		templates: base.Templates,
		budgets:   base.Budgets,
	}
	if s.rubrics == nil {
		s.rubrics = map[string]Rubric{}
	}
	if s.templates == nil {
		s.templates = map[string][]Template{}
	}
	if s.budgets == nil {
		s.budgets = map[string]BudgetLimits{}
	}

	if len(override) > 0 {
		var over fileSchema
		if err := yaml.Unmarshal(override, &over); err != nil {
			return nil, eris.Wrap(err, "configstore: parse override")
		}
		for pt, r := range over.QualityGates {
			s.rubrics[pt] = r
		}
		for pt, t := range over.Templates {
			s.templates[pt] = t
		}
		for pt, b := range over.Budgets {
			s.budgets[pt] = b
		}
	}

	// Keep templates in descending priority so callers iterate in order.
	for pt := range s.templates {
		tpls := s.templates[pt]
		sort.SliceStable(tpls, func(i, j int) bool {
			return tpls[i].Priority > tpls[j].Priority
		})
		s.templates[pt] = tpls
	}

	return s, nil
}

// QualityRubric returns the rubric for a product type. When a category is
// supplied, a "type/category" entry takes precedence over the plain type.
func (s *Store) QualityRubric(productType, category string) (Rubric, bool) {
	if category != "" {
		if r, ok := s.rubrics[productType+"/"+category]; ok {
			return r, true
		}
	}
	r, ok := s.rubrics[productType]
	return r, ok
}

// Templates returns the review-site search templates for a product type in
// descending priority order. Missing product types yield nil.
func (s *Store) Templates(productType string) []Template {
	return s.templates[productType]
}

// Budget returns the budget limits for a product type, falling back to the
// "default" entry and then to the package defaults of 6 searches, 8 sources,
// and 180 seconds.
func (s *Store) Budget(productType string) BudgetLimits {
	if b, ok := s.budgets[productType]; ok {
		return withBudgetDefaults(b)
	}
	if b, ok := s.budgets["default"]; ok {
		return withBudgetDefaults(b)
	}
	return BudgetLimits{
		MaxSearches:    DefaultMaxSearches,
		MaxSources:     DefaultMaxSources,
		MaxTimeSeconds: DefaultMaxTimeSeconds,
	}
}

func withBudgetDefaults(b BudgetLimits) BudgetLimits {
	if b.MaxSearches <= 0 {
		b.MaxSearches = DefaultMaxSearches
	}
	if b.MaxSources <= 0 {
		b.MaxSources = DefaultMaxSources
	}
	if b.MaxTimeSeconds <= 0 {
		b.MaxTimeSeconds = DefaultMaxTimeSeconds
	}
	return b
}
