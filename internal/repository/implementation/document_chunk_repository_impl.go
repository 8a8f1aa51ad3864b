package implementation

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/pkg/workflow"
)

type DocumentChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{db: db}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(chunks).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, category string, embedding []float32, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		Source     string
		Position   int
		Content    string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query) recovers the similarity.
	query := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("documents.source, document_chunks.position, document_chunks.content, 1 - (document_chunks.embedding <=> ?) as similarity", queryVector).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("document_chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")
	if category != workflow.CategoryAll && category != "" {
		query = query.Where("documents.category = ?", category)
	}
	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Source:   res.Source,
			Position: res.Position,
			Content:  res.Content,
			Score:    clampScore(res.Similarity),
		}
	}
	return scored, nil
}

func (r *DocumentChunkRepositoryImpl) SearchKeyword(ctx context.Context, category, query string, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		Source   string
		Position int
		Content  string
		Rank     float64
	}
	var results []result

	// ts_rank_cd with normalization 32 maps ranks into [0, 1).
	q := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("documents.source, document_chunks.position, document_chunks.content, ts_rank_cd(to_tsvector('english', document_chunks.content), plainto_tsquery('english', ?), 32) as rank", query).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("to_tsvector('english', document_chunks.content) @@ plainto_tsquery('english', ?)", query).
		Where("document_chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")
	if category != workflow.CategoryAll && category != "" {
		q = q.Where("documents.category = ?", category)
	}
	err := q.
		Order("rank DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Source:   res.Source,
			Position: res.Position,
			Content:  res.Content,
			Score:    clampScore(res.Rank),
		}
	}
	return scored, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
