package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medalline/enrich/internal/model"
)

func TestValidate_BourbonVsRye(t *testing.T) {
	v := NewValidator()

	target := model.Fields{
		"name":  model.String("Whistling Ridge Straight Bourbon"),
		"brand": model.String("Whistling Ridge"),
	}
	candidate := model.Fields{
		"name":  model.String("Whistling Ridge Straight Rye"),
		"brand": model.String("Whistling Ridge"),
	}

	ok, reason := v.Validate(target, candidate)
	assert.False(t, ok)
	assert.Contains(t, reason, ReasonTypeMismatch)
}

func TestValidate_BrandMismatch(t *testing.T) {
	v := NewValidator()

	ok, reason := v.Validate(
		model.Fields{"name": model.String("Reserve Cabernet"), "brand": model.String("Silver Creek")},
		model.Fields{"name": model.String("Reserve Cabernet"), "brand": model.String("Copper Hollow")},
	)
	assert.False(t, ok)
	assert.Equal(t, ReasonBrandMismatch, reason)
}

func TestValidate_BrandContainmentAccepted(t *testing.T) {
	v := NewValidator()

	// "Macallan" vs "The Macallan Distillers" is the same producer.
	ok, reason := v.Validate(
		model.Fields{"name": model.String("Macallan 12 Year Sherry Oak"), "brand": model.String("Macallan")},
		model.Fields{"name": model.String("The Macallan 12 Year Sherry Oak"), "brand": model.String("The Macallan Distillers")},
	)
	assert.True(t, ok)
	assert.Equal(t, ReasonMatch, reason)
}

func TestValidate_NoCandidateNameIsPermissive(t *testing.T) {
	v := NewValidator()

	ok, reason := v.Validate(
		model.Fields{"name": model.String("Anything")},
		model.Fields{"abv": model.Number(40)},
	)
	assert.True(t, ok)
	assert.Equal(t, ReasonNoName, reason)
}

func TestValidate_NameOverlapThreshold(t *testing.T) {
	v := NewValidator()

	// Completely disjoint identity tokens.
	ok, reason := v.Validate(
		model.Fields{"name": model.String("Chateau Margaux Grand Cru")},
		model.Fields{"name": model.String("Penfolds Bin 389 Shiraz")},
	)
	assert.False(t, ok)
	assert.Contains(t, reason, ReasonNameMismatch)

	// Same product with extra retailer noise in the candidate name.
	ok, reason = v.Validate(
		model.Fields{"name": model.String("Chateau Margaux Grand Cru")},
		model.Fields{"name": model.String("Chateau Margaux Grand Cru 750ml Bottle")},
	)
	assert.True(t, ok)
	assert.Equal(t, ReasonMatch, reason)
}

func TestValidate_AgeStatementConflict(t *testing.T) {
	v := NewValidator()

	ok, reason := v.Validate(
		model.Fields{"name": model.String("Glen Example 12 Year Single Malt")},
		model.Fields{"name": model.String("Glen Example 18 Year Single Malt")},
	)
	assert.False(t, ok)
	assert.Contains(t, reason, ReasonTypeMismatch)
}

func TestValidate_KeywordOnBothSidesIsNotAConflict(t *testing.T) {
	v := NewValidator()

	// Both names mention bourbon; rye appearing in the mash-bill phrasing
	// of one side alone is still one-sided, so pick names that share both.
	ok, _ := v.Validate(
		model.Fields{"name": model.String("High Rye Bourbon Small Batch")},
		model.Fields{"name": model.String("High Rye Bourbon Small Batch Proof 95")},
	)
	assert.True(t, ok)
}

func TestValidate_CaseInsensitive(t *testing.T) {
	v := NewValidator()

	ok, reason := v.Validate(
		model.Fields{"name": model.String("TAWNY PORT 20 YEAR")},
		model.Fields{"name": model.String("ruby port 20 year")},
	)
	assert.False(t, ok)
	assert.Contains(t, reason, ReasonTypeMismatch)
}
