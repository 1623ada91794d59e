package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/lysyi3m/content-comb/app/content"
)

const (
	// Bodies at or below this length carry too little signal to classify.
	MinBodyLength = 10
	// Bodies are truncated to this prefix before submission to bound cost
	// and latency.
	MaxBodyLength = 1500
)

const promptTemplate = `Analyze the following article and respond with a single JSON object
of the exact shape {"categories": ["..."], "summary": "..."}.
"categories" holds 1-3 short topic tags, "summary" a 1-2 sentence summary.
Respond with the JSON object only, no surrounding text.

Title: %s

Content: %s`

// Result is what enrichment yields. The zero value is the documented
// fallback for every failure mode.
type Result struct {
	Categories []string `json:"categories"`
	Summary    string   `json:"summary"`
}

// Generator abstracts the text-generation call so tests can fake it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float64, maxTokens int) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &g.temperature,
		MaxOutputTokens: g.maxTokens,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generation returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Classifier derives topic tags and a short summary for a record.
// Classification is best-effort: Run never returns an error, a zero Result
// stands in for every failure so saving is never blocked.
type Classifier struct {
	generator Generator
}

// NewClassifier wraps a generator. A nil generator disables classification;
// Run then always returns the zero Result.
func NewClassifier(generator Generator) *Classifier {
	return &Classifier{generator: generator}
}

func (c *Classifier) Run(ctx context.Context, title, body string) Result {
	if c.generator == nil {
		return Result{}
	}

	if len(body) <= MinBodyLength {
		slog.Debug("Skipping classification, body too short", "title", title, "length", len(body))
		return Result{}
	}

	prompt := fmt.Sprintf(promptTemplate, title, truncate(body, MaxBodyLength))

	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Classification call failed, continuing without enrichment", "title", title, "error", err)
		return Result{}
	}

	var result Result
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		slog.Warn("Classification response is not valid JSON, continuing without enrichment", "title", title, "error", err)
		return Result{}
	}

	result.Categories = content.CanonicalCategories(result.Categories)
	result.Summary = strings.TrimSpace(result.Summary)

	return result
}

// cleanJSON strips markdown code fences models like to wrap JSON in.
func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
