package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ai-docqa-be/internal/config"
	"ai-docqa-be/internal/controller"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/repository/implementation"
	"ai-docqa-be/internal/repository/memory"
	"ai-docqa-be/internal/service"
	"ai-docqa-be/pkg/activity"
	"ai-docqa-be/pkg/cache"
	"ai-docqa-be/pkg/checkpoint"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/llm/ollama"
	pktNats "ai-docqa-be/pkg/nats"
	"ai-docqa-be/pkg/rag/executor"
	"ai-docqa-be/pkg/rag/fusion"
	"ai-docqa-be/pkg/rag/generate"
	"ai-docqa-be/pkg/rag/quality"
	"ai-docqa-be/pkg/rag/rerank"
	"ai-docqa-be/pkg/rag/router"
)

type Container struct {
	// Controllers
	QAController controller.IQAController

	// Background services (exposed for main.go to run)
	ActivityConsumerService service.IActivityConsumerService

	// Shared infrastructure handles for shutdown
	SysLogger logger.ILogger
	NatsPub   *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := newFileLogger("logs/workflow.log")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	llmProvider := ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	log.Printf("[INFO] Using Ollama at %s (llm=%s embed=%s)", cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel, cfg.Ai.EmbeddingModel)

	rerankProvider := llmProvider
	if cfg.Ai.RerankModel != "" && cfg.Ai.RerankModel != cfg.Ai.LLMModel {
		rerankProvider = ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.RerankModel)
	}

	// 4. Repositories
	checkpointRepo := implementation.NewCheckpointRepository(db)
	documentRepo := implementation.NewDocumentRepository(db)
	chunkRepo := implementation.NewDocumentChunkRepository(db)
	vectorStore := implementation.NewChunkSearchAdapter(chunkRepo)
	keywordSearch := implementation.NewKeywordSearcher(chunkRepo)
	sessionRepo := memory.NewSessionRepository(2 * time.Hour)

	checkpointStore := checkpoint.NewStore(checkpointRepo, ragLogger)

	// 5. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	var redisAnswers *cache.RedisAnswerStore
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, answer cache runs in-memory only: %v", err)
	} else {
		redisAnswers = cache.NewRedisAnswerStore(rdb, cfg.Cache.RedisTTL)
	}

	answerCache := cache.NewAnswerCache(cfg.Cache.Capacity, cfg.Cache.FuzzyThreshold, cache.JaroWinklerMatcher{}, ragLogger)

	// 6. Workflow engine
	machineConfig := executor.Config{
		TopK:            cfg.Workflow.TopK,
		MaxRetries:      cfg.Workflow.MaxRetries,
		CallTimeout:     time.Duration(cfg.Workflow.CallTimeoutSec) * time.Second,
		MaxHistoryTurns: cfg.Workflow.MaxHistoryTurns,
		RerankEnabled:   cfg.Workflow.RerankEnabled,
		Fusion: fusion.Config{
			SemanticWeight: cfg.Workflow.SemanticWeight,
			KeywordWeight:  cfg.Workflow.KeywordWeight,
			FinalK:         cfg.Workflow.FinalK,
		},
		Quality: quality.Config{
			MinChunks:   cfg.Workflow.MinChunks,
			MinAvgScore: cfg.Workflow.MinAvgScore,
		},
	}
	machine := executor.NewMachine(
		router.NewLLMRouter(llmProvider, ragLogger),
		embeddingProvider,
		vectorStore,
		keywordSearch,
		generate.NewLLMGenerator(llmProvider, ragLogger),
		rerank.NewLLMScorer(rerankProvider),
		checkpointStore,
		activity.NewWatermillSink(cfg.App.ActivityTopic, pubSub),
		machineConfig,
		ragLogger,
	)

	// 7. Services and controllers
	qaService := service.NewQAService(machine, checkpointStore, answerCache, redisAnswers, sessionRepo, documentRepo, sysLogger)
	consumerService := service.NewActivityConsumerService(pubSub, cfg.App.ActivityTopic, natsPub, sysLogger)

	return &Container{
		QAController:            controller.NewQAController(qaService),
		ActivityConsumerService: consumerService,
		SysLogger:               sysLogger,
		NatsPub:                 natsPub,
	}
}

// newFileLogger returns a plain file logger for the noisy workflow internals,
// falling back to stdout when the file cannot be opened.
func newFileLogger(logPath string) *log.Logger {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return log.New(os.Stdout, "[WORKFLOW] ", log.LstdFlags)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[WORKFLOW] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
