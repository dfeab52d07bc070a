// Package match decides whether a source's extraction describes the same
// product we are enriching, so data from lookalike products never reaches
// the merger.
package match

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/medalline/enrich/internal/model"
)

// Rejection reasons reported by Validate.
const (
	ReasonMatch         = "match"
	ReasonNoName        = "no_name_extracted"
	ReasonBrandMismatch = "brand_mismatch"
	ReasonTypeMismatch  = "product_type_mismatch"
	ReasonNameMismatch  = "name_mismatch"
)

// minNameOverlap is the token-overlap ratio below which two names are
// considered different products.
const minNameOverlap = 0.30

// exclusivePairs lists keyword pairs that never describe the same product.
// A target name containing only one side and a candidate name containing
// only the other side is a type mismatch.
var exclusivePairs = [][2]string{
	{"bourbon", "rye"},
	{"single malt", "blended"},
	{"scotch", "bourbon"},
	{"irish", "scotch"},
	{"tawny", "ruby"},
	{"vintage", "lbv"},
}

// ageBands are age statements treated as mutually exclusive pairwise.
var ageBands = []string{
	"10 year", "12 year", "15 year", "18 year", "20 year", "21 year", "25 year", "30 year",
}

// stopWords are tokens carrying no product identity.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"wine": true, "whiskey": true, "whisky": true, "spirit": true,
	"old": true, "year": true, "years": true, "aged": true,
	"edition": true, "reserve": true, "limited": true,
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var foldCaser = cases.Fold()

// Validator checks identity congruence between a target product and a
// candidate extraction. It holds no per-call state and is safe for
// concurrent use.
type Validator struct{}

// NewValidator creates a product match validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports whether the candidate extraction plausibly describes the
// target product, with a reason. Checks short-circuit in order: missing
// candidate name (permissive accept), brand containment, exclusive keyword
// pairs over names, then token overlap.
func (v *Validator) Validate(target, candidate model.Fields) (bool, string) {
	candName := normalize(candidate.GetString("name"))
	if candName == "" {
		// Not enough information to judge; let the merger see it.
		return true, ReasonNoName
	}

	targetBrand := normalize(target.GetString("brand"))
	candBrand := normalize(candidate.GetString("brand"))
	if targetBrand != "" && candBrand != "" {
		if !strings.Contains(targetBrand, candBrand) && !strings.Contains(candBrand, targetBrand) {
			return false, ReasonBrandMismatch
		}
	}

	targetName := normalize(target.GetString("name"))
	if pair, mismatch := exclusiveKeywordMismatch(targetName, candName); mismatch {
		return false, fmt.Sprintf("%s: %q vs %q", ReasonTypeMismatch, pair[0], pair[1])
	}

	targetTokens := tokenize(targetName)
	candTokens := tokenize(candName)
	if len(targetTokens) == 0 || len(candTokens) == 0 {
		// Nothing left to compare after stop-word filtering.
		return true, ReasonMatch
	}

	overlap := tokenOverlap(targetTokens, candTokens)
	if overlap < minNameOverlap {
		return false, fmt.Sprintf("%s: overlap %.2f between %q and %q", ReasonNameMismatch, overlap, targetName, candName)
	}

	return true, ReasonMatch
}

// exclusiveKeywordMismatch scans the exclusive pair table and the age bands.
// A mismatch requires the target to contain exactly one side of a pair and
// the candidate to contain only the other side.
func exclusiveKeywordMismatch(target, candidate string) ([2]string, bool) {
	for _, pair := range exclusivePairs {
		if oneSidedConflict(target, candidate, pair[0], pair[1]) {
			return pair, true
		}
		if oneSidedConflict(target, candidate, pair[1], pair[0]) {
			return [2]string{pair[1], pair[0]}, true
		}
	}
	for i, a := range ageBands {
		for _, b := range ageBands[i+1:] {
			if oneSidedConflict(target, candidate, a, b) {
				return [2]string{a, b}, true
			}
			if oneSidedConflict(target, candidate, b, a) {
				return [2]string{b, a}, true
			}
		}
	}
	return [2]string{}, false
}

// oneSidedConflict reports whether target mentions a but not b while the
// candidate mentions b but not a.
func oneSidedConflict(target, candidate, a, b string) bool {
	return strings.Contains(target, a) && !strings.Contains(target, b) &&
		strings.Contains(candidate, b) && !strings.Contains(candidate, a)
}

// tokenOverlap computes |intersection| / min(|a|, |b|) over token sets.
func tokenOverlap(a, b map[string]bool) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	common := 0
	for tok := range small {
		if large[tok] {
			common++
		}
	}
	return float64(common) / float64(len(small))
}

// tokenize splits a normalized name into identity tokens, dropping stop
// words and tokens shorter than 3 characters.
func tokenize(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range tokenPattern.FindAllString(name, -1) {
		if len(tok) < 3 || stopWords[tok] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

// normalize case-folds and collapses whitespace for comparisons.
func normalize(s string) string {
	return strings.Join(strings.Fields(foldCaser.String(s)), " ")
}
