// Package quality scores a working record's completeness against the
// per-product-type tier rubric and decides whether enrichment should
// continue.
package quality

import (
	"go.uber.org/zap"

	"github.com/medalline/enrich/internal/configstore"
	"github.com/medalline/enrich/internal/model"
)

// completeECPThreshold is the ECP at or above which a record no longer needs
// enrichment, provided it has also reached the COMPLETE tier.
const completeECPThreshold = 90.0

// Gate evaluates records against rubrics from the config store.
type Gate struct {
	cfg *configstore.Store
}

// NewGate creates a quality gate backed by the given config store.
func NewGate(cfg *configstore.Store) *Gate {
	return &Gate{cfg: cfg}
}

// Assess computes the record's tier status and extraction completeness
// percentage. A missing rubric is a non-fatal configuration gap: the record
// is reported as PARTIAL with zero ECP and enrichment stays wanted.
// Confidences travel with the record but do not affect tier evaluation.
func (g *Gate) Assess(data model.Fields, productType string, confidences map[string]float64, category string) model.QualityAssessment {
	_ = confidences

	rubric, ok := g.cfg.QualityRubric(productType, category)
	if !ok {
		zap.L().Warn("quality: no rubric configured for product type",
			zap.String("product_type", productType),
			zap.String("category", category),
		)
		return model.QualityAssessment{
			Status:          model.StatusPartial,
			ECPTotal:        0,
			NeedsEnrichment: true,
		}
	}

	status := model.StatusSkeleton
	for _, tier := range []model.Status{model.StatusSkeleton, model.StatusPartial, model.StatusComplete, model.StatusVerified} {
		if tierReached(data, rubric.Tier(tier)) {
			status = tier
		}
	}

	ecp := ecpTotal(data, rubric)

	return model.QualityAssessment{
		Status:           status,
		ECPTotal:         ecp,
		NeedsEnrichment:  status < model.StatusComplete || ecp < completeECPThreshold,
		RubricConfigured: true,
	}
}

// tierReached reports whether every required field is populated and at least
// AnyOfCount of the any-of fields are populated.
func tierReached(data model.Fields, rule configstore.TierRule) bool {
	for _, name := range rule.Required {
		if !data.Has(name) {
			return false
		}
	}
	if rule.AnyOfCount <= 0 || len(rule.AnyOf) == 0 {
		return true
	}
	populated := 0
	for _, name := range rule.AnyOf {
		if data.Has(name) {
			populated++
			if populated >= rule.AnyOfCount {
				return true
			}
		}
	}
	return false
}

// ecpTotal is the percentage of the union of all tiers' required and any-of
// fields that are populated. It is a finer-grained completeness signal than
// the discrete tier.
func ecpTotal(data model.Fields, rubric configstore.Rubric) float64 {
	all := rubric.AllFields()
	if len(all) == 0 {
		return 0
	}
	populated := 0
	for _, name := range all {
		if data.Has(name) {
			populated++
		}
	}
	return 100.0 * float64(populated) / float64(len(all))
}
