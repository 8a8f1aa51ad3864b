package rerank

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/workflow"
)

// LLMScorer asks the language model for a 0-100 relevance score per chunk.
type LLMScorer struct {
	provider llm.LLMProvider
}

var _ Scorer = &LLMScorer{}

func NewLLMScorer(provider llm.LLMProvider) *LLMScorer {
	return &LLMScorer{provider: provider}
}

func (s *LLMScorer) Score(ctx context.Context, question string, chunk workflow.Chunk) (int, error) {
	prompt := fmt.Sprintf(
		"<system>\nYou are a relevance grader. Respond with ONLY an integer from 0 to 100.\n"+
			"0 means the passage is unrelated to the question, 100 means it fully answers it.\n</system>\n\n"+
			"Question: %s\n\nPassage:\n%s\n\nScore:",
		question, chunk.Content,
	)

	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(8))
	if err != nil {
		return 0, err
	}
	return parseScore(response)
}

// parseScore extracts the leading integer from a model response.
func parseScore(response string) (int, error) {
	cleaned := strings.TrimSpace(response)
	var digits strings.Builder
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("no score in response %q", cleaned)
	}
	score, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", digits.String(), err)
	}
	return score, nil
}
