package app

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/docupine/docupine-backend/internal/clients/openai"
	"github.com/docupine/docupine-backend/internal/ingestion"
	"github.com/docupine/docupine-backend/internal/jobs"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/vector"
	"github.com/docupine/docupine-backend/internal/services"
	"github.com/docupine/docupine-backend/internal/sse"
)

type Services struct {
	Document services.DocumentService
	Chat     services.ChatService

	VectorStore vector.Store
	Embedder    openai.EmbeddingsClient
	Queue       jobs.Queue
	Worker      *jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *sse.Hub) (Services, error) {
	embedder, err := openai.NewEmbeddingsClient(log, openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.EmbedModel,
		Dimensions: cfg.EmbedDimensions,
	})
	if err != nil {
		return Services{}, fmt.Errorf("embeddings client: %w", err)
	}

	store, err := resolveVectorStore(log, cfg)
	if err != nil {
		return Services{}, err
	}

	fetcher := ingestion.NewFetcher(
		log,
		&http.Client{Timeout: cfg.FetchTimeout},
		cfg.StorageBaseURL,
		cfg.MaxFetchBytes,
	)

	pipeline, err := ingestion.NewPipeline(
		log,
		reposet.Document,
		reposet.DocumentChunk,
		fetcher,
		embedder,
		store,
		ingestion.PlanLimits{FreePages: cfg.FreePlanPages, ProPages: cfg.ProPlanPages},
		hub,
	)
	if err != nil {
		return Services{}, fmt.Errorf("ingestion pipeline: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	queue, err := jobs.NewRedisQueue(rdb, "")
	if err != nil {
		return Services{}, fmt.Errorf("ingest queue: %w", err)
	}
	worker, err := jobs.NewWorker(log, queue, pipeline, cfg.IngestWorkers)
	if err != nil {
		return Services{}, fmt.Errorf("ingest worker: %w", err)
	}

	documentService := services.NewDocumentService(db, log, reposet.Document, reposet.DocumentChunk, store)
	chatService := services.NewChatService(log, documentService, reposet.Message, embedder, store)

	return Services{
		Document:    documentService,
		Chat:        chatService,
		VectorStore: store,
		Embedder:    embedder,
		Queue:       queue,
		Worker:      worker,
	}, nil
}
