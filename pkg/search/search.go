// Package search defines the retrieval interfaces the workflow engine
// consumes. The engine never sees an index implementation, only these two
// contracts; Postgres-backed implementations live in internal/repository.
package search

import (
	"context"

	"ai-docqa-be/pkg/workflow"
)

// VectorStore returns the top-k chunks of a collection ranked by semantic
// similarity to the query vector. Scores are similarities in [0,1]. The
// sentinel collection "all" searches every collection.
type VectorStore interface {
	Search(ctx context.Context, collection string, vector []float32, k int) ([]workflow.Chunk, error)
}

// KeywordSearch returns the top-k chunks of a collection ranked by lexical
// relevance to the query text.
type KeywordSearch interface {
	Search(ctx context.Context, collection string, query string, k int) ([]workflow.Chunk, error)
}
