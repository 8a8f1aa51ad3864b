package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/workflow"
)

// AnswerGenerator synthesizes an answer from the question, the deduplicated
// context chunks and a short conversation-history summary. Answers carry
// inline citation markers like [1] referring to chunk order.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []workflow.Chunk, historySummary string) (string, error)
}

// LLMGenerator builds a grounded prompt and delegates to the LLM provider.
type LLMGenerator struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

var _ AnswerGenerator = &LLMGenerator{}

func NewLLMGenerator(provider llm.LLMProvider, logger *log.Logger) *LLMGenerator {
	return &LLMGenerator{provider: provider, logger: logger}
}

func (g *LLMGenerator) Generate(ctx context.Context, question string, chunks []workflow.Chunk, historySummary string) (string, error) {
	prompt := g.buildGroundedPrompt(question, chunks, historySummary)

	response, err := g.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	if g.logger != nil {
		g.logger.Printf("[GENERATION] answer generated from %d chunks", len(chunks))
	}
	return response, nil
}

func (g *LLMGenerator) buildGroundedPrompt(question string, chunks []workflow.Chunk, historySummary string) string {
	var prompt strings.Builder

	if historySummary != "" {
		prompt.WriteString("<recent_conversation>\n")
		prompt.WriteString(historySummary)
		prompt.WriteString("\n</recent_conversation>\n\n")
	}

	prompt.WriteString("<grounded_reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n")
	prompt.WriteString("Each passage is numbered; cite passages inline as [1], [2], ... when you use them.\n\n")
	for i, c := range chunks {
		prompt.WriteString(fmt.Sprintf("\n--- PASSAGE [%d] (source: %s) ---\n", i+1, c.Source))
		prompt.WriteString(c.Content)
		prompt.WriteString(fmt.Sprintf("\n--- END PASSAGE [%d] ---\n", i+1))
	}
	prompt.WriteString("</grounded_reference_material>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("Answer the question using only the passages above.\n")
	prompt.WriteString("If the passages do not contain the answer, say so instead of guessing.\n")
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString("Question: ")
	prompt.WriteString(question)

	return prompt.String()
}
