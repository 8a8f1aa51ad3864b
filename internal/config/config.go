package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Workflow WorkflowConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ActivityTopic      string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	OllamaBaseURL  string
	EmbeddingModel string
	LLMModel       string
	RerankModel    string
}

type WorkflowConfig struct {
	TopK            int
	FinalK          int
	MaxRetries      int
	CallTimeoutSec  int
	MaxHistoryTurns int
	RerankEnabled   bool
	SemanticWeight  float64
	KeywordWeight   float64
	MinChunks       int
	MinAvgScore     float64
}

type CacheConfig struct {
	Capacity       int
	FuzzyThreshold float64
	RedisTTL       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ActivityTopic:      getEnv("WORKFLOW_ACTIVITY_TOPIC_NAME", "WORKFLOW_ACTIVITY"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			RerankModel:    getEnv("RERANK_MODEL", ""),
		},
		Workflow: WorkflowConfig{
			TopK:            getEnvAsInt("WORKFLOW_TOP_K", 10),
			FinalK:          getEnvAsInt("WORKFLOW_FINAL_K", 10),
			MaxRetries:      getEnvAsInt("WORKFLOW_MAX_RETRIES", 2),
			CallTimeoutSec:  getEnvAsInt("WORKFLOW_CALL_TIMEOUT_SEC", 30),
			MaxHistoryTurns: getEnvAsInt("WORKFLOW_HISTORY_TURNS", 4),
			RerankEnabled:   getEnvAsBool("WORKFLOW_RERANK_ENABLED", true),
			SemanticWeight:  getEnvAsFloat("FUSION_SEMANTIC_WEIGHT", 0.7),
			KeywordWeight:   getEnvAsFloat("FUSION_KEYWORD_WEIGHT", 0.3),
			MinChunks:       getEnvAsInt("QUALITY_MIN_CHUNKS", 3),
			MinAvgScore:     getEnvAsFloat("QUALITY_MIN_AVG_SCORE", 0.55),
		},
		Cache: CacheConfig{
			Capacity:       getEnvAsInt("ANSWER_CACHE_CAPACITY", 500),
			FuzzyThreshold: getEnvAsFloat("ANSWER_CACHE_FUZZY_THRESHOLD", 0.85),
			RedisTTL:       time.Duration(getEnvAsInt("ANSWER_CACHE_REDIS_TTL_HOURS", 24)) * time.Hour,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
