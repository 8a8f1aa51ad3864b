package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/workflow"
)

// CategoryRouter decides which document category a question should be
// searched against.
type CategoryRouter interface {
	Route(ctx context.Context, question string, categories []string, conversationContext string) (string, error)
}

// LLMRouter resolves the category with a single deterministic LLM call. A
// response outside the available set falls back to the "all" sentinel rather
// than failing the request.
type LLMRouter struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

var _ CategoryRouter = &LLMRouter{}

func NewLLMRouter(provider llm.LLMProvider, logger *log.Logger) *LLMRouter {
	return &LLMRouter{provider: provider, logger: logger}
}

func (r *LLMRouter) Route(ctx context.Context, question string, categories []string, conversationContext string) (string, error) {
	prompt := r.buildPrompt(question, categories, conversationContext)

	// Temperature 0 keeps routing deterministic.
	response, err := r.provider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		return "", fmt.Errorf("category routing failed: %w", err)
	}

	category := parseCategory(response, categories)
	if r.logger != nil {
		r.logger.Printf("[ROUTER] question routed to category %q", category)
	}
	return category, nil
}

func (r *LLMRouter) buildPrompt(question string, categories []string, conversationContext string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a topic classifier. Your ONLY job is to pick the document category a question belongs to.\n")
	prompt.WriteString("You do NOT answer the question. Respond with exactly one category name and nothing else.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<categories>\n")
	for _, c := range categories {
		prompt.WriteString("- " + c + "\n")
	}
	prompt.WriteString("</categories>\n\n")

	if conversationContext != "" {
		prompt.WriteString("<recent_conversation>\n")
		prompt.WriteString(conversationContext)
		prompt.WriteString("\n</recent_conversation>\n\n")
	}

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n")

	return prompt.String()
}

// parseCategory extracts a known category from a model response. Membership
// is checked case-insensitively; anything unrecognized widens to "all".
func parseCategory(response string, categories []string) string {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(response), "\"'.`"))
	for _, c := range categories {
		if strings.EqualFold(c, cleaned) {
			return c
		}
	}
	// Models sometimes wrap the answer in a sentence; take the first
	// category mentioned.
	for _, c := range categories {
		if strings.Contains(cleaned, strings.ToLower(c)) {
			return c
		}
	}
	return workflow.CategoryAll
}
