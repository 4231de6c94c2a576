package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/interestmap/engine/internal/ai"
	"github.com/interestmap/engine/internal/api/handlers"
	"github.com/interestmap/engine/internal/api/middleware"
	"github.com/interestmap/engine/internal/config"
	"github.com/interestmap/engine/internal/jobs"
	"github.com/interestmap/engine/internal/observability"
	"github.com/interestmap/engine/internal/provider"
	"github.com/interestmap/engine/internal/repository"
	"github.com/interestmap/engine/internal/service"
	"github.com/interestmap/engine/pkg/database"
)

const riverWorkerCount = 4

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	meterProvider, err := observability.NewMeterProvider(cfg.MetricsEnabled)
	if err != nil {
		logger.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	metrics, err := observability.NewMetrics(meterProvider)
	if err != nil {
		logger.Error("Failed to create metric recorders", "error", err)
		os.Exit(1)
	}

	// The durable store is optional: without DATABASE_URL the engine serves
	// the legacy provider-merge path only.
	var db *pgxpool.Pool
	if cfg.DatabaseEnabled() {
		db, err = database.NewPostgresPool(ctx, cfg.DatabaseURL,
			database.WithAfterConnect(pgxvec.RegisterTypes))
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		logger.Info("running without a database (DATABASE_URL not set), legacy path only")
	}

	var aiClient *ai.OpenAIClient
	if cfg.EmbeddingsEnabled() {
		aiClient = ai.NewOpenAIClient(ai.OpenAIClientParams{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			ChatModel:      cfg.RerankModel,
		})
		logger.Info("AI enabled",
			"embedding_model", cfg.EmbeddingModel, "rerank_model", cfg.RerankModel)
	} else {
		logger.Info("AI disabled (OPENAI_API_KEY not set), heuristic rerank only")
	}

	var (
		catalogRepo    *repository.CatalogRepository
		cacheRepo      *repository.ContentCacheRepository
		embeddingsRepo *repository.EmbeddingsRepository
		interestsRepo  *repository.InterestsRepository
		feedbackRepo   *repository.FeedbackRepository
	)

	if db != nil {
		catalogRepo = repository.NewCatalogRepository(db)
		cacheRepo = repository.NewContentCacheRepository(db)
		embeddingsRepo = repository.NewEmbeddingsRepository(db)
		interestsRepo = repository.NewInterestsRepository(db)
		feedbackRepo = repository.NewFeedbackRepository(db)
	}

	var riverClient *river.Client[pgx.Tx]
	if db != nil && aiClient != nil {
		riverClient, err = initRiver(db, cfg, aiClient, catalogRepo, embeddingsRepo, metrics, logger)
		if err != nil {
			logger.Error("Failed to initialize River job queue", "error", err)
			os.Exit(1)
		}

		if err := riverClient.Start(ctx); err != nil {
			logger.Error("Failed to start River job queue", "error", err)
			os.Exit(1)
		}

		logger.Info("River job queue started", "workers", riverWorkerCount)
	}

	engine := buildEngine(cfg, aiClient, riverClient, metrics, logger,
		catalogRepo, cacheRepo, embeddingsRepo, interestsRepo)

	contentHandler := handlers.NewContentHandler(engine)
	healthHandler := handlers.NewHealthHandler()

	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	if meterProvider != nil {
		publicMux.Handle("GET /metrics", promhttp.Handler())
	}

	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/content", contentHandler.Get)

	if feedbackRepo != nil {
		feedbackService := service.NewFeedbackService(feedbackRepo, logger)
		feedbackHandler := handlers.NewFeedbackHandler(feedbackService, logger)
		protectedMux.HandleFunc("POST /v1/feedback", feedbackHandler.Create)
	}

	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux)

	var handler http.Handler = mainMux
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Metrics(metrics.HTTP)(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if riverClient != nil {
		logger.Info("Stopping River job queue...")

		if err := riverClient.Stop(shutdownCtx); err != nil {
			logger.Error("River forced to shutdown", "error", err)
		}
	}

	logger.Info("Server exited")
}

// buildEngine wires the full pipeline. Nil repositories are passed through as
// nil consumer interfaces so the engine degrades instead of failing.
func buildEngine(
	cfg *config.Config,
	aiClient *ai.OpenAIClient,
	riverClient *river.Client[pgx.Tx],
	metrics *observability.Metrics,
	logger *slog.Logger,
	catalogRepo *repository.CatalogRepository,
	cacheRepo *repository.ContentCacheRepository,
	embeddingsRepo *repository.EmbeddingsRepository,
	interestsRepo *repository.InterestsRepository,
) *service.Engine {
	var cacheRepoIface service.ContentCacheRepository
	if cacheRepo != nil {
		cacheRepoIface = cacheRepo
	}

	contentCache := service.NewContentCache(service.ContentCacheParams{
		Repo:    cacheRepoIface,
		Metrics: metrics.Cache,
		Logger:  logger,
	})

	var catalog *service.CatalogService
	if catalogRepo != nil {
		var jobInserter service.EmbeddingJobInserter
		if riverClient != nil {
			jobInserter = riverClient
		}

		catalog = service.NewCatalogService(service.CatalogServiceParams{
			Repo:           catalogRepo,
			JobInserter:    jobInserter,
			JobMaxAttempts: cfg.EmbeddingJobMaxAttempts,
			Logger:         logger,
		})
	}

	var embeddingClient ai.EmbeddingClient
	var chatClient ai.ChatClient

	if aiClient != nil {
		embeddingClient = aiClient
		chatClient = aiClient
	}

	var embeddingsRepoIface service.EmbeddingsRepository
	if embeddingsRepo != nil {
		embeddingsRepoIface = embeddingsRepo
	}

	embeddingStore, err := service.NewEmbeddingStore(service.EmbeddingStoreParams{
		Client:       embeddingClient,
		Repo:         embeddingsRepoIface,
		Metrics:      metrics.Embedding,
		CacheMetrics: metrics.Cache,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("Failed to create embedding store", "error", err)
		os.Exit(1)
	}

	retriever := service.NewRetriever(embeddingStore, logger)

	reranker := service.NewReranker(service.RerankerParams{
		Chat:    chatClient,
		Metrics: metrics.Engine,
		Logger:  logger,
	})

	adapters := []provider.Adapter{
		provider.NewYouTubeAdapter(cfg.YouTubeAPIKey, logger),
		provider.NewBooksAdapter(logger),
		provider.NewArticlesAdapter(cfg.ArticlesFeedURL, logger),
		provider.NewTelegramAdapter(cfg.TelegramDirectoryURL, logger),
		provider.NewPromptsAdapter(),
	}

	var interestsIface service.InterestsRepository
	if interestsRepo != nil {
		interestsIface = interestsRepo
	}

	return service.NewEngine(service.EngineParams{
		Adapters:        adapters,
		Cache:           contentCache,
		Catalog:         catalog,
		Interests:       interestsIface,
		Embeddings:      embeddingStore,
		Retriever:       retriever,
		Reranker:        reranker,
		Metrics:         metrics.Engine,
		Logger:          logger,
		FetchConcurrent: cfg.ProviderFetchConcurrency,
	})
}

// initRiver creates the River client with the content embedding worker
// registered.
func initRiver(
	db *pgxpool.Pool,
	cfg *config.Config,
	aiClient *ai.OpenAIClient,
	catalogRepo *repository.CatalogRepository,
	embeddingsRepo *repository.EmbeddingsRepository,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (*river.Client[pgx.Tx], error) {
	worker := jobs.NewContentEmbeddingWorker(jobs.ContentEmbeddingWorkerParams{
		Catalog:    catalogRepo,
		Embeddings: embeddingsRepo,
		Client:     aiClient,
		Metrics:    metrics.Embedding,
		Logger:     logger,
	})

	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: riverWorkerCount},
		},
		Workers:     workers,
		JobTimeout:  60 * time.Second,
		MaxAttempts: cfg.EmbeddingJobMaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return riverClient, nil
}
