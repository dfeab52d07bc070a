package paywall

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_GatedStatusCodes(t *testing.T) {
	d := NewDetector()

	assert.True(t, d.Classify("", http.StatusUnauthorized))
	assert.True(t, d.Classify("", http.StatusPaymentRequired))
	assert.True(t, d.Classify("", http.StatusForbidden))

	assert.False(t, d.Classify("", http.StatusOK))
	assert.False(t, d.Classify("", http.StatusNotFound))
}

func TestClassify_GatedContent(t *testing.T) {
	d := NewDetector()

	gated := []string{
		`<form action="/login" method="post">`,
		`<input type="password" name="pw">`,
		`Sign in to view the full tasting notes.`,
		`Log in to continue reading.`,
		`This review is available to Members Only.`,
		`Member exclusive: 2024 vintage report.`,
		`Join now to access our cellar ratings.`,
		`Subscription required for full scores.`,
		`Subscribe to unlock the complete review.`,
		`You have hit our paywall.`,
		`Premium content ahead.`,
		`Unlock the full article with a free trial.`,
		`Access Denied`,
		`restricted area - staff only`,
		`Authentication required to proceed.`,
	}
	for _, content := range gated {
		assert.True(t, d.Classify(content, http.StatusOK), "content: %s", content)
	}
}

func TestClassify_OpenContent(t *testing.T) {
	d := NewDetector()

	open := []string{
		``,
		`Glen Example 12 Year is a Speyside single malt bottled at 43% ABV.`,
		`<form action="/search"><input type="text" name="q"></form>`,
		`Our members enjoyed this wine at the tasting.`,
		`Sign up for our newsletter.`,
	}
	for _, content := range open {
		assert.False(t, d.Classify(content, http.StatusOK), "content: %s", content)
	}
}
