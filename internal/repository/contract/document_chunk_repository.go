package contract

import (
	"context"

	"github.com/google/uuid"

	"ai-docqa-be/internal/model"
)

// ScoredChunk is a retrieved chunk together with its provenance and a
// relevance score normalized to [0, 1].
type ScoredChunk struct {
	Source   string
	Position int
	Content  string
	Score    float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*model.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error

	// SearchSimilarWithScore runs a cosine-similarity search over the chunk
	// embeddings, optionally restricted to one document category.
	SearchSimilarWithScore(ctx context.Context, category string, embedding []float32, limit int) ([]*ScoredChunk, error)

	// SearchKeyword runs a Postgres full-text search ranked by ts_rank,
	// optionally restricted to one document category.
	SearchKeyword(ctx context.Context, category, query string, limit int) ([]*ScoredChunk, error)
}
