package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/docindex/internal/api/handlers"
	"github.com/cloo-solutions/docindex/internal/api/middleware"
	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Put(ctx context.Context, input service.PutDocumentInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, orgID, documentID string) (*service.DocumentStatusOutput, error) {
	args := m.Called(ctx, orgID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentStatusOutput), args.Error(1)
}

func (m *MockDocumentService) Reindex(ctx context.Context, orgID, documentID string) error {
	return m.Called(ctx, orgID, documentID).Error(0)
}

func (m *MockDocumentService) Delete(ctx context.Context, orgID, documentID string) error {
	return m.Called(ctx, orgID, documentID).Error(0)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) HybridSearchDocuments(ctx context.Context, input service.HybridSearchInput) ([]service.DocumentMatch, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentMatch), args.Error(1)
}

func (m *MockSearchService) SearchDocuments(ctx context.Context, orgID, query string, limit int) ([]service.DocumentMatch, error) {
	args := m.Called(ctx, orgID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentMatch), args.Error(1)
}

func (m *MockSearchService) SearchDocumentsByTitle(ctx context.Context, orgID, query string, limit int) ([]service.DocumentMatch, error) {
	args := m.Called(ctx, orgID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentMatch), args.Error(1)
}

func (m *MockSearchService) SearchInDocument(ctx context.Context, orgID, documentID, query string, limit int) ([]service.ChunkMatch, error) {
	args := m.Called(ctx, orgID, documentID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ChunkMatch), args.Error(1)
}

func (m *MockSearchService) FindRelatedDocuments(ctx context.Context, orgID, documentID string, limit int) ([]service.DocumentMatch, error) {
	args := m.Called(ctx, orgID, documentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentMatch), args.Error(1)
}

func (m *MockSearchService) FindRelatedDocumentsByContent(ctx context.Context, orgID, documentID string, limit int) ([]service.DocumentMatch, error) {
	args := m.Called(ctx, orgID, documentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentMatch), args.Error(1)
}

func setupRouter() (http.Handler, *MockDocumentService, *MockSearchService) {
	docSvc := new(MockDocumentService)
	searchSvc := new(MockSearchService)
	router := NewRouter(RouterConfig{
		Logger:          zerolog.Nop(),
		DocumentHandler: handlers.NewDocumentHandler(docSvc),
		SearchHandler:   handlers.NewSearchHandler(searchSvc, service.DefaultSimilarityFloor),
	})
	return router, docSvc, searchSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ScopedRoutes_RequireOrg(t *testing.T) {
	router, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/documents/doc-1"},
		{http.MethodGet, "/documents/doc-1"},
		{http.MethodDelete, "/documents/doc-1"},
		{http.MethodPost, "/documents/doc-1/reindex"},
		{http.MethodGet, "/documents/doc-1/search"},
		{http.MethodGet, "/documents/doc-1/related"},
		{http.MethodPost, "/search"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_GetDocument(t *testing.T) {
	router, docSvc, _ := setupRouter()

	doc := domain.NewDocument("doc-1", "org-789", "Runbook", true, time.Now().UTC())
	docSvc.On("Get", mock.Anything, "org-789", "doc-1").
		Return(&service.DocumentStatusOutput{Document: doc, ChunkCount: 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil)
	req.Header.Set(middleware.OrgHeader, "org-789")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	docSvc.AssertExpectations(t)
}

func TestRouter_Search(t *testing.T) {
	router, _, searchSvc := setupRouter()

	searchSvc.On("SearchDocuments", mock.Anything, "org-789", "runbook", 0).
		Return([]service.DocumentMatch{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"runbook","mode":"content"}`))
	req.Header.Set(middleware.OrgHeader, "org-789")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	searchSvc.AssertExpectations(t)
}

func TestRouter_Related(t *testing.T) {
	router, _, searchSvc := setupRouter()

	searchSvc.On("FindRelatedDocumentsByContent", mock.Anything, "org-789", "doc-1", 0).
		Return([]service.DocumentMatch{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/related?by=content", nil)
	req.Header.Set(middleware.OrgHeader, "org-789")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	searchSvc.AssertExpectations(t)
}
