// Package paywall classifies fetched content as members-only or paywalled
// so the orchestrator can refund the search slot spent reaching it.
package paywall

import (
	"net/http"
	"regexp"
)

// gatedStatusCodes are HTTP statuses that always indicate gated content.
var gatedStatusCodes = map[int]bool{
	http.StatusUnauthorized:    true,
	http.StatusPaymentRequired: true,
	http.StatusForbidden:       true,
}

// gatedPatterns match login forms, membership language, paywall language,
// and access-denied language in fetched content.
var gatedPatterns = []*regexp.Regexp{
	// Login forms.
	regexp.MustCompile(`(?i)<form[^>]*(login|sign[-_]?in)`),
	regexp.MustCompile(`(?i)<input[^>]*type=["']?password`),
	regexp.MustCompile(`(?i)(sign|log)\s*in\s+to\s+(view|access|continue|read)`),
	// Membership language.
	regexp.MustCompile(`(?i)members\s+only`),
	regexp.MustCompile(`(?i)member\s+exclusive`),
	regexp.MustCompile(`(?i)join\s+now\s+to\s+access`),
	regexp.MustCompile(`(?i)subscription\s+required`),
	regexp.MustCompile(`(?i)subscribe\s+to\s+unlock`),
	// Paywall language.
	regexp.MustCompile(`(?i)paywall`),
	regexp.MustCompile(`(?i)premium\s+content`),
	regexp.MustCompile(`(?i)unlock\s+(this|the\s+full|full)\s+(content|article)`),
	// Access denied language.
	regexp.MustCompile(`(?i)access\s+denied`),
	regexp.MustCompile(`(?i)restricted\s+area`),
	regexp.MustCompile(`(?i)authentication\s+required`),
}

// Detector classifies fetched pages as gated. It holds only compiled
// patterns and is safe for concurrent use.
type Detector struct{}

// NewDetector creates a members-only content detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Classify reports whether the fetched page is members-only or paywalled,
// judging the HTTP status first and the content patterns second.
func (d *Detector) Classify(content string, statusCode int) bool {
	if gatedStatusCodes[statusCode] {
		return true
	}
	for _, p := range gatedPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}
