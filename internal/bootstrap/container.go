package bootstrap

import (
	"context"
	"log"

	"campus-qa-be/internal/config"
	"campus-qa-be/internal/controller"
	"campus-qa-be/internal/pkg/logger"
	"campus-qa-be/internal/repository/implementation"
	"campus-qa-be/internal/repository/memory"
	"campus-qa-be/pkg/embedding"
	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/llm/factory"
	"campus-qa-be/pkg/rag"
	"campus-qa-be/pkg/rag/entity"
	"campus-qa-be/pkg/rag/fallback"
	"campus-qa-be/pkg/rag/filter"
	"campus-qa-be/pkg/rag/planner"
	"campus-qa-be/pkg/rag/session"
	"campus-qa-be/pkg/rag/synthesis"
	"campus-qa-be/pkg/rag/toolcache"
	"campus-qa-be/pkg/rag/tools"
	"campus-qa-be/pkg/rag/trainlog"
	"campus-qa-be/pkg/schema"

	pktNats "campus-qa-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	QueryController controller.IQueryController

	SysLogger     logger.ILogger
	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := log.Default()

	// AI providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.SynthesisModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (planning=%s synthesis=%s)",
		cfg.Ai.LLMProvider, cfg.Ai.PlanningModel, cfg.Ai.SynthesisModel)

	client := llm.NewClient(llmProvider,
		llm.PhaseConfig{
			Model:       cfg.Ai.PlanningModel,
			Temperature: cfg.Ai.PlanningTemperature,
			MaxTokens:   cfg.Ai.PlanningMaxTokens,
		},
		llm.PhaseConfig{
			Model:       cfg.Ai.SynthesisModel,
			Temperature: cfg.Ai.SynthesisTemperature,
			MaxTokens:   cfg.Ai.SynthesisMaxTokens,
		},
		ragLogger,
	)

	// Collection store over the pgvector-backed documents table
	collectionStore, err := implementation.NewCollectionStore(db, embeddingProvider)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open collection store: %v", err)
	}

	introspector := schema.NewIntrospector(collectionStore, ragLogger)
	dbSchema, err := introspector.Introspect(context.Background())
	if err != nil {
		log.Fatalf("[FATAL] Schema introspection failed: %v", err)
	}

	// RAG pipeline
	normalizer := filter.NewNormalizer(dbSchema)
	resolver := entity.NewResolver(collectionStore, ragLogger)
	generator := synthesis.NewGenerator(client, ragLogger)
	registry := tools.NewRegistry(collectionStore, resolver, normalizer, dbSchema, generator, ragLogger)

	var redisClient *redis.Client
	if opts, err := redis.ParseURL(cfg.App.RedisURL); err != nil {
		log.Printf("[WARN] Invalid REDIS_URL, tool cache disabled: %v", err)
	} else {
		redisClient = redis.NewClient(opts)
	}
	toolCache := toolcache.NewCache(redisClient, ragLogger)

	sessionCache := memory.NewSessionCache()
	sessionRepo := implementation.NewSessionRepository(db)
	sessions := session.NewManager(sessionCache, sessionRepo, client, cfg.Rag.MaxHistoryTurns, ragLogger)

	queryPlanner := planner.NewPlanner(client, registry, dbSchema, ragLogger)
	fallbackEngine := fallback.NewEngine(collectionStore, ragLogger)

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
		natsPub = nil
	}
	trainingRepo := implementation.NewTrainingRepository(db)
	trainingLog := trainlog.NewLogger(trainingRepo, natsPub, ragLogger)

	sysLogger.Info("bootstrap", "query engine initialized", map[string]interface{}{
		"collections":  len(collectionStore.Names()),
		"llm_provider": cfg.Ai.LLMProvider,
		"tool_cache":   redisClient != nil,
		"event_bus":    natsPub != nil,
	})

	orchestrator := rag.NewOrchestrator(
		sessions,
		queryPlanner,
		registry,
		toolCache,
		fallbackEngine,
		generator,
		trainingLog,
		ragLogger,
	)

	return &Container{
		QueryController: controller.NewQueryController(orchestrator),
		SysLogger:       sysLogger,
		NatsPublisher:   natsPub,
	}
}
