package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/docindex/internal/config"
	"github.com/cloo-solutions/docindex/internal/database"
	"github.com/cloo-solutions/docindex/internal/jobs"
	"github.com/cloo-solutions/docindex/internal/openai"
	"github.com/cloo-solutions/docindex/internal/repository"
	"github.com/cloo-solutions/docindex/internal/service"
	"github.com/cloo-solutions/docindex/internal/storage"
)

// app holds the wired services shared by the daemon commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool

	documentRepo *repository.DocumentRepository
	jobRepo      *repository.IndexingJobRepository

	documents *service.DocumentService
	indexing  *service.IndexingService
	search    *service.SearchService
	worker    *jobs.IndexingWorker
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("DOCINDEX_OPENAI_API_KEY is required")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to database")

	states, err := newContentStateStore(ctx, cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)
	titleRepo := repository.NewTitleEmbeddingRepository(pool)
	jobRepo := repository.NewIndexingJobRepository(pool).WithLease(cfg.JobLease)
	searchRepo := repository.NewSearchRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	indexing := service.NewIndexingService(documentRepo, titleRepo, states, txRunner, embedder, cfg.Indexing(), logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		pool:         pool,
		documentRepo: documentRepo,
		jobRepo:      jobRepo,
		documents:    service.NewDocumentService(documentRepo, chunkRepo, states, txRunner),
		indexing:     indexing,
		search:       service.NewSearchService(searchRepo, documentRepo, titleRepo, embedder, logger),
		worker:       jobs.NewIndexingWorker(jobRepo, indexing, cfg.WorkerConcurrency, logger),
	}, nil
}

// newContentStateStore keeps content states in S3 when it is configured
// and in Postgres otherwise.
func newContentStateStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (service.ContentStateStore, error) {
	if !cfg.HasS3() {
		return repository.NewContentStateRepository(pool), nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	logger.Info().Str("bucket", cfg.S3Bucket).Msg("content states stored in S3")
	return storage.NewSnapshotStore(client), nil
}

func (a *app) Close() {
	a.pool.Close()
}
