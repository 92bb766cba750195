//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cloo-solutions/docindex/internal/api/handlers"
	"github.com/cloo-solutions/docindex/internal/api/middleware"
	"github.com/cloo-solutions/docindex/internal/jobs"
	"github.com/cloo-solutions/docindex/internal/repository"
	"github.com/cloo-solutions/docindex/internal/server"
	"github.com/cloo-solutions/docindex/internal/service"
	"github.com/cloo-solutions/docindex/internal/storage"
	"github.com/cloo-solutions/docindex/internal/testutil"
)

const embeddingDimensions = 1536

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	Worker     *jobs.IndexingWorker
	HTTPClient *http.Client
}

// SetupE2EEnv starts Postgres and RustFS, wires the full service stack
// behind an httptest server and returns the environment.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-states",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	logger := zerolog.Nop()
	states := storage.NewSnapshotStore(s3Client)
	embedder := topicEmbedder{}

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)
	titleRepo := repository.NewTitleEmbeddingRepository(pool)
	jobRepo := repository.NewIndexingJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	indexing := service.NewIndexingService(documentRepo, titleRepo, states, txRunner, embedder, service.DefaultIndexingConfig(), logger)
	documents := service.NewDocumentService(documentRepo, chunkRepo, states, txRunner)
	search := service.NewSearchService(repository.NewSearchRepository(pool), documentRepo, titleRepo, embedder, logger)

	router := server.NewRouter(server.RouterConfig{
		Logger:          logger,
		DocumentHandler: handlers.NewDocumentHandler(documents),
		SearchHandler:   handlers.NewSearchHandler(search, service.DefaultSimilarityFloor),
	})

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Server:     httptest.NewServer(router),
		Worker:     jobs.NewIndexingWorker(jobRepo, indexing, 2, logger),
		HTTPClient: &http.Client{},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Drain runs the indexing worker until no job is left to claim.
func (e *E2ETestEnv) Drain() {
	for {
		n, err := e.Worker.ProcessBatch(e.Ctx)
		if err != nil {
			e.T.Fatalf("failed to process jobs: %v", err)
		}
		if n == 0 {
			return
		}
	}
}

// APIResponse is a decoded response envelope.
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func (e *E2ETestEnv) Get(path, orgID string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, orgID)
}

func (e *E2ETestEnv) Post(path string, body any, orgID string) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body, orgID)
}

func (e *E2ETestEnv) Put(path string, body any, orgID string) (*APIResponse, error) {
	return e.doRequest(http.MethodPut, path, body, orgID)
}

func (e *E2ETestEnv) Delete(path, orgID string) (*APIResponse, error) {
	return e.doRequest(http.MethodDelete, path, nil, orgID)
}

func (e *E2ETestEnv) doRequest(method, path string, body any, orgID string) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if orgID != "" {
		req.Header.Set(middleware.OrgHeader, orgID)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &APIResponse{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode response %q: %w", raw, err)
		}
	}
	return out, nil
}

// topics are the axes of the vectors produced by topicEmbedder.
var topics = []string{"deploy", "billing", "onboarding"}

// topicEmbedder maps text onto one axis per topic word it mentions plus a
// small shared bias, so texts about the same topic are near-identical and
// texts about different topics are far apart.
type topicEmbedder struct{}

func (topicEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, embeddingDimensions)
	lower := strings.ToLower(text)
	for i, topic := range topics {
		if strings.Contains(lower, topic) {
			v[i] = 1
		}
	}
	v[len(topics)] = 0.1

	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

func (e topicEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
