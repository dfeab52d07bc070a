package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessenger returns a canned completion and records the prompt.
type fakeMessenger struct {
	response string
	err      error
	prompt   string
}

func (m *fakeMessenger) create(ctx context.Context, system, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func testExtractor(m messenger) *AnthropicExtractor {
	return &AnthropicExtractor{llm: m, model: "test-model"}
}

func TestExtract_ParsesProducts(t *testing.T) {
	m := &fakeMessenger{response: `{"products":[{
		"extracted_data":{"name":"Glen Example 12 Year","abv":43.0},
		"confidence":0.85,
		"field_confidences":{"name":0.95}
	}]}`}
	e := testExtractor(m)

	res, err := e.Extract(context.Background(), "page content", "https://a.example", "whiskey", nil, false)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Products, 1)

	p := res.Products[0]
	assert.Equal(t, "Glen Example 12 Year", p.Fields["name"])
	assert.Equal(t, 0.85, p.Confidence)
	assert.Equal(t, 0.95, p.FieldConfidences["name"])
}

func TestExtract_StripsMarkdownFences(t *testing.T) {
	m := &fakeMessenger{response: "```json\n" +
		`{"products":[{"extracted_data":{"name":"X"},"confidence":0.5}]}` +
		"\n```"}
	e := testExtractor(m)

	res, err := e.Extract(context.Background(), "content", "https://a.example", "wine", nil, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestExtract_EmptyContentShortCircuits(t *testing.T) {
	m := &fakeMessenger{}
	e := testExtractor(m)

	res, err := e.Extract(context.Background(), "   ", "https://a.example", "wine", nil, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, m.prompt, "no LLM call for empty content")
}

func TestExtract_DefaultSchemaInPrompt(t *testing.T) {
	m := &fakeMessenger{response: `{"products":[{"extracted_data":{"name":"X"},"confidence":0.5}]}`}
	e := testExtractor(m)

	_, err := e.Extract(context.Background(), "content", "https://a.example", "whiskey", nil, false)
	require.NoError(t, err)
	assert.Contains(t, m.prompt, "- age_statement")
	assert.Contains(t, m.prompt, "- name")

	// A narrowed schema replaces the default.
	_, err = e.Extract(context.Background(), "content", "https://a.example", "whiskey", []string{"awards"}, false)
	require.NoError(t, err)
	assert.Contains(t, m.prompt, "- awards")
	assert.NotContains(t, m.prompt, "- age_statement")
}

func TestExtract_TruncatesLongContent(t *testing.T) {
	m := &fakeMessenger{response: `{"products":[{"extracted_data":{"name":"X"},"confidence":0.5}]}`}
	e := testExtractor(m)

	long := strings.Repeat("x", maxContentChars+5000)
	_, err := e.Extract(context.Background(), long, "https://a.example", "wine", nil, false)
	require.NoError(t, err)
	assert.Less(t, len(m.prompt), len(long))
}

func TestExtract_NoProductsIsUnsuccessful(t *testing.T) {
	m := &fakeMessenger{response: `{"products":[]}`}
	e := testExtractor(m)

	res, err := e.Extract(context.Background(), "content", "https://a.example", "wine", nil, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestExtract_EmptyFieldsDropped(t *testing.T) {
	m := &fakeMessenger{response: `{"products":[
		{"extracted_data":{},"confidence":0.9},
		{"extracted_data":{"name":"Kept"},"confidence":0.8}
	]}`}
	e := testExtractor(m)

	res, err := e.Extract(context.Background(), "content", "https://a.example", "wine", nil, false)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Kept", res.Products[0].Fields["name"])
}

func TestExtract_MalformedJSONFails(t *testing.T) {
	m := &fakeMessenger{response: "I could not find any products."}
	e := testExtractor(m)

	_, err := e.Extract(context.Background(), "content", "https://a.example", "wine", nil, false)
	assert.Error(t, err)
}
