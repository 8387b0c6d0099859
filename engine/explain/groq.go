package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-8b-instant"
)

// Groq explains matches through Groq's OpenAI-compatible chat API.
type Groq struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

// NewGroq creates a Groq explainer. Empty model and baseURL use the defaults.
func NewGroq(apiKey, model, baseURL string) (*Groq, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultGroqModel
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("explain: create groq client: %w", err)
	}
	return NewGroqWithModel(client), nil
}

// NewGroqWithModel wraps an existing langchaingo model.
func NewGroqWithModel(llm llms.Model) *Groq {
	return &Groq{llm: llm, temperature: 0.7, maxTokens: 500}
}

// Name implements Explainer.
func (g *Groq) Name() string { return "groq" }

// Explain implements Explainer.
func (g *Groq) Explain(ctx context.Context, req Request) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(req)),
	}
	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("explain: groq: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
