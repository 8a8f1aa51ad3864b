package embedding

import "context"

// EmbeddingProvider turns text into a fixed-length vector suitable for
// cosine-similarity search. Vectors are unit-normalized.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
