// Package extract provides the structured-field extraction boundary: given
// fetched page content, it pulls product fields with per-field confidences
// using an LLM.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// maxContentChars bounds how much page content goes into one extraction
// prompt. Reader output is markdown, so this is roughly 6k tokens.
const maxContentChars = 24000

// Product is one extracted product from a page.
type Product struct {
	Fields           map[string]any     `json:"extracted_data"`
	Confidence       float64            `json:"confidence"`
	FieldConfidences map[string]float64 `json:"field_confidences"`
}

// Result is the outcome of one extraction call.
type Result struct {
	Success  bool      `json:"success"`
	Products []Product `json:"products"`
	Error    string    `json:"error,omitempty"`
}

// Extractor extracts product fields from page content. A nil schema means
// the full default field set for the product type; a non-empty list narrows
// extraction to those fields. detectMulti asks for every product on a page
// that covers several.
type Extractor interface {
	Extract(ctx context.Context, content, sourceURL, productType string, schema []string, detectMulti bool) (*Result, error)
}

const systemPrompt = "You are a beverage data analyst extracting structured product data " +
	"from web pages. Return only valid JSON matching the requested schema. " +
	"Use null for fields not found on the page. Never invent values."

const extractPrompt = `Extract data for a %s product from this page.

Fields to extract:
%s

%s
Page URL: %s
Page content:
%s

Return a valid JSON object:
{"products": [{"extracted_data": {<field>: <value or null>}, "confidence": <0.0-1.0 overall>, "field_confidences": {<field>: <0.0-1.0>}}]}`

const multiProductNote = "The page may describe several products; return one entry per product.\n"
const singleProductNote = "Return exactly one entry for the product the page is primarily about.\n"

// messenger abstracts the LLM call for testing.
type messenger interface {
	create(ctx context.Context, system, prompt string) (string, error)
}

// AnthropicExtractor is the production Extractor backed by the Anthropic
// messages API.
type AnthropicExtractor struct {
	llm   messenger
	model string
}

// AnthropicOption configures the extractor.
type AnthropicOption func(*AnthropicExtractor)

// NewAnthropic creates an extractor using the given API key and model.
func NewAnthropic(apiKey, model string, opts ...AnthropicOption) *AnthropicExtractor {
	e := &AnthropicExtractor{
		llm:   &sdkMessenger{client: anthropic.NewClient(option.WithAPIKey(apiKey)), model: model},
		model: model,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract pulls product fields from the page content.
func (e *AnthropicExtractor) Extract(ctx context.Context, content, sourceURL, productType string, schema []string, detectMulti bool) (*Result, error) {
	if strings.TrimSpace(content) == "" {
		return &Result{Success: false, Error: "empty content"}, nil
	}
	if len(schema) == 0 {
		schema = DefaultSchema(productType)
	}

	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	multiNote := singleProductNote
	if detectMulti {
		multiNote = multiProductNote
	}

	prompt := fmt.Sprintf(extractPrompt,
		productType,
		"- "+strings.Join(schema, "\n- "),
		multiNote,
		sourceURL,
		content,
	)

	raw, err := e.llm.create(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "extract: llm call")
	}

	parsed, err := parseExtraction(raw)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseExtraction decodes the model's JSON, tolerating markdown fences.
func parseExtraction(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, eris.Wrap(err, "extract: unmarshal model output")
	}

	products := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if len(p.Fields) == 0 {
			continue
		}
		if p.FieldConfidences == nil {
			p.FieldConfidences = map[string]float64{}
		}
		products = append(products, p)
	}
	if len(products) == 0 {
		return &Result{Success: false, Error: "no products extracted"}, nil
	}
	return &Result{Success: true, Products: products}, nil
}

// sdkMessenger is the real Anthropic call.
type sdkMessenger struct {
	client anthropic.Client
	model  string
}

func (m *sdkMessenger) create(ctx context.Context, system, prompt string) (string, error) {
	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: messages.new")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
