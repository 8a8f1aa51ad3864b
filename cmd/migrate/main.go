package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"ai-docqa-be/internal/model"
	"ai-docqa-be/pkg/database"
)

func main() {
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

	log.Println("Starting GORM migration...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	models := []interface{}{
		&model.Document{},
		&model.DocumentChunk{},
		&model.Checkpoint{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// GIN index for the full-text branch of hybrid search.
	ftsIndex := `CREATE INDEX IF NOT EXISTS idx_document_chunks_fts
		ON document_chunks USING GIN (to_tsvector('english', content));`
	if err := db.Exec(ftsIndex).Error; err != nil {
		log.Printf("Warn: Failed to create full-text index: %v", err)
	}

	log.Println("Migration complete.")
}
