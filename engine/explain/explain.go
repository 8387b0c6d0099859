// Package explain asks a hosted LLM why a job description matched an
// occupation. Every provider is best-effort: callers substitute
// FallbackExplanation on any error.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FallbackExplanation is shown when no provider answer is available.
const FallbackExplanation = "Unable to generate detailed reasoning at this time, but the semantic match suggests a strong correlation between your input and the matched job category."

var (
	ErrMissingCredentials = errors.New("explain: api key is required")
	ErrEmptyResponse      = errors.New("explain: provider returned empty response")
)

// Request describes the best match to explain.
type Request struct {
	Input       string
	Title       string
	Code        string
	Score       float64
	Description string
}

// Explainer produces a short natural-language explanation for a match.
// Implementations must be safe for concurrent use.
type Explainer interface {
	Explain(ctx context.Context, req Request) (string, error)
	Name() string
}

// BuildPrompt renders the provider prompt for req.
func BuildPrompt(req Request) string {
	title := req.Title
	if title == "" {
		title = "Unknown Position"
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = "No additional description available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Input Text: %q\n\n", req.Input)
	fmt.Fprintf(&b, "Best Matched Job Title: %q\n", title)
	if req.Code != "" {
		fmt.Fprintf(&b, "Occupation Code: %s\n", req.Code)
	}
	fmt.Fprintf(&b, "Match Confidence Score: %.4f\n\n", req.Score)
	fmt.Fprintf(&b, "Additional Context: %s\n\n", desc)
	b.WriteString("Please explain how the input text relates to this job title. ")
	b.WriteString("Provide a clear, concise explanation of the connection and why this match makes sense. ")
	b.WriteString("Keep your response under 200 words.")
	return b.String()
}
