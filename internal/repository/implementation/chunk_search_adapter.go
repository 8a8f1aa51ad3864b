package implementation

import (
	"context"

	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/pkg/search"
	"ai-docqa-be/pkg/workflow"
)

// ChunkSearchAdapter exposes the chunk repository through the retrieval
// interfaces the workflow engine consumes.
type ChunkSearchAdapter struct {
	repo contract.DocumentChunkRepository
}

var _ search.VectorStore = &ChunkSearchAdapter{}

func NewChunkSearchAdapter(repo contract.DocumentChunkRepository) *ChunkSearchAdapter {
	return &ChunkSearchAdapter{repo: repo}
}

func (a *ChunkSearchAdapter) Search(ctx context.Context, category string, vector []float32, k int) ([]workflow.Chunk, error) {
	scored, err := a.repo.SearchSimilarWithScore(ctx, category, vector, k)
	if err != nil {
		return nil, err
	}
	return toWorkflowChunks(scored), nil
}

// KeywordSearcher adapts the full-text side separately so the engine sees two
// distinct retrieval tools backed by one table.
type KeywordSearcher struct {
	repo contract.DocumentChunkRepository
}

var _ search.KeywordSearch = &KeywordSearcher{}

func NewKeywordSearcher(repo contract.DocumentChunkRepository) *KeywordSearcher {
	return &KeywordSearcher{repo: repo}
}

func (a *KeywordSearcher) Search(ctx context.Context, category, query string, k int) ([]workflow.Chunk, error) {
	scored, err := a.repo.SearchKeyword(ctx, category, query, k)
	if err != nil {
		return nil, err
	}
	return toWorkflowChunks(scored), nil
}

func toWorkflowChunks(scored []*contract.ScoredChunk) []workflow.Chunk {
	chunks := make([]workflow.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = workflow.Chunk{
			Source:   s.Source,
			Position: s.Position,
			Content:  s.Content,
			Score:    s.Score,
		}
	}
	return chunks
}
