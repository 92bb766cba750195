package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cloo-solutions/docindex/internal/chunking"
	"github.com/cloo-solutions/docindex/internal/service"
)

const envPrefix = "DOCINDEX"

// EmbeddingDimensions is the vector width of the chunk and title embedding
// columns in the schema.
const EmbeddingDimensions = 1536

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docindex-states"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	ChunkStrategy string `envconfig:"CHUNK_STRATEGY" default:"paragraph"`
	ChunkMaxChars int    `envconfig:"CHUNK_MAX_CHARS" default:"1500"`
	ChunkMinChars int    `envconfig:"CHUNK_MIN_CHARS" default:"50"`
	ChunkOverlap  int    `envconfig:"CHUNK_OVERLAP" default:"200"`

	SimilarityFloor float64 `envconfig:"SIMILARITY_FLOOR" default:"0.3"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"2s"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"4"`
	JobLease           time.Duration `envconfig:"JOB_LEASE" default:"15m"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := chunking.ParseStrategy(c.ChunkStrategy); err != nil {
		return err
	}
	if c.EmbeddingDimensions != EmbeddingDimensions {
		return fmt.Errorf("embedding dimensions must be %d to match the vector columns, got %d",
			EmbeddingDimensions, c.EmbeddingDimensions)
	}
	return nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// Indexing returns the chunking settings for the indexing service.
func (c *Config) Indexing() service.IndexingConfig {
	strategy, err := chunking.ParseStrategy(c.ChunkStrategy)
	if err != nil {
		strategy = chunking.StrategyParagraph
	}
	return service.IndexingConfig{
		Strategy: strategy,
		Chunk: chunking.Config{
			MaxChars: c.ChunkMaxChars,
			MinChars: c.ChunkMinChars,
			Overlap:  c.ChunkOverlap,
		},
	}
}
