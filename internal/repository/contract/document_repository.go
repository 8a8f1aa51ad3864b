package contract

import (
	"context"

	"github.com/google/uuid"

	"ai-docqa-be/internal/model"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *model.Document) error
	FindBySource(ctx context.Context, source string) (*model.Document, error)
	ListCategories(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
