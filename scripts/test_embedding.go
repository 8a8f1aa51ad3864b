//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"

	"ai-docqa-be/internal/config"
	"ai-docqa-be/pkg/embedding"
)

func main() {
	cfg := config.Load()
	fmt.Printf("Loaded Config > Ollama URL: %s\n", cfg.Ai.OllamaBaseURL)
	fmt.Printf("Loaded Config > Embedding Model: %s\n", cfg.Ai.EmbeddingModel)

	provider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)

	text := "How do I rotate the signing keys for the internal API gateway?"
	fmt.Printf("\nGenerating embedding for: %q\n", text)

	vec, err := provider.Generate(context.Background(), text)
	if err != nil {
		log.Fatalf("Error generating embedding: %v", err)
	}

	fmt.Printf("Dimension: %d\n", len(vec))
	if len(vec) > 5 {
		fmt.Printf("First values: %v\n", vec[:5])
	}
}
