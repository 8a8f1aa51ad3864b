// Seeder ingests a directory of plain-text documents into the corpus. Files
// are laid out as <root>/<category>/<name>.txt; each file becomes a document
// whose paragraphs are chunked, embedded and stored.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"

	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/implementation"
	"ai-docqa-be/pkg/database"
	"ai-docqa-be/pkg/embedding"
)

const maxChunkRunes = 1200

func main() {
	root := flag.String("dir", "./corpus", "root directory of category-organized documents")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	embedModel := os.Getenv("OLLAMA_EMBEDDING_MODEL")
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	embedder := embedding.NewOllamaProvider(baseURL, embedModel)

	documents := implementation.NewDocumentRepository(db)
	chunks := implementation.NewDocumentChunkRepository(db)
	ctx := context.Background()

	entries, err := os.ReadDir(*root)
	if err != nil {
		log.Fatalf("Error: cannot read corpus root %s: %v", *root, err)
	}

	var seeded, skipped int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category := entry.Name()
		files, err := os.ReadDir(filepath.Join(*root, category))
		if err != nil {
			log.Printf("Warn: cannot read category %s: %v", category, err)
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			source := filepath.Join(category, f.Name())

			existing, err := documents.FindBySource(ctx, source)
			if err != nil {
				log.Fatalf("Error: lookup for %s failed: %v", source, err)
			}
			if existing != nil {
				skipped++
				continue
			}

			raw, err := os.ReadFile(filepath.Join(*root, category, f.Name()))
			if err != nil {
				log.Printf("Warn: cannot read %s: %v", source, err)
				continue
			}

			doc := &model.Document{
				Source:   source,
				Title:    strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())),
				Category: category,
			}
			if err := documents.Create(ctx, doc); err != nil {
				log.Fatalf("Error: create document %s failed: %v", source, err)
			}

			parts := splitChunks(string(raw))
			models := make([]*model.DocumentChunk, 0, len(parts))
			for i, content := range parts {
				vector, err := embedder.Generate(ctx, content)
				if err != nil {
					log.Fatalf("Error: embedding chunk %d of %s failed: %v", i, source, err)
				}
				models = append(models, &model.DocumentChunk{
					DocumentId: doc.Id,
					Position:   i,
					Content:    content,
					Embedding:  pgvector.NewVector(vector),
				})
			}
			if err := chunks.CreateBulk(ctx, models); err != nil {
				log.Fatalf("Error: insert chunks for %s failed: %v", source, err)
			}
			seeded++
			log.Printf("Seeded %s (%d chunks)", source, len(models))
		}
	}

	log.Printf("Done. %d documents seeded, %d already present.", seeded, skipped)
}

// splitChunks breaks text on blank lines, merging neighbors until the rune
// budget is reached so tiny paragraphs don't become useless chunks.
func splitChunks(text string) []string {
	paragraphs := strings.Split(text, "\n\n")
	var out []string
	var current strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(p)) > maxChunkRunes {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
