package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/service"
)

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

func decodeResults(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	data := decodeData(t, w)
	results, ok := data["results"].([]any)
	require.True(t, ok)
	return results
}

func TestSearchHandler_Hybrid_AppliesFloor(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.5)

	mockSvc.On("HybridSearchDocuments", mock.Anything, service.HybridSearchInput{
		OrgID: testOrgID, Query: "deploy", Strategy: "both", Limit: 5,
	}).Return([]service.DocumentMatch{
		{DocumentID: "a", Title: "Deploys", MatchType: service.MatchTypeTitle, Similarity: 0.9,
			ContentChunks: []service.ChunkMatch{{ChunkID: "c1", Similarity: 0.8}, {ChunkID: "c2", Similarity: 0.2}}},
		{DocumentID: "b", Title: "Other", MatchType: service.MatchTypeContent, Similarity: 0.4,
			ContentChunks: []service.ChunkMatch{{ChunkID: "c3", Similarity: 0.4}}},
	}, nil)

	req := requestWithOrgID(http.MethodPost, "/search", []byte(`{"query":"deploy","strategy":"both","limit":5}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	results := decodeResults(t, w)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "a", first["document_id"])
	assert.Equal(t, "title_match", first["match_type"])
	assert.Len(t, first["content_chunks"], 1)
	mockSvc.AssertExpectations(t)
}

func TestSearchHandler_Hybrid_RequestFloorOverrides(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.5)

	mockSvc.On("HybridSearchDocuments", mock.Anything, mock.Anything).Return([]service.DocumentMatch{
		{DocumentID: "b", ContentChunks: []service.ChunkMatch{{ChunkID: "c3", Similarity: 0.4}}},
	}, nil)

	req := requestWithOrgID(http.MethodPost, "/search", []byte(`{"query":"deploy","min_similarity":0.1}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResults(t, w), 1)
}

func TestSearchHandler_ContentMode(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	mockSvc.On("SearchDocuments", mock.Anything, testOrgID, "deploy", 3).
		Return([]service.DocumentMatch{{DocumentID: "a", MatchType: service.MatchTypeContent}}, nil)

	req := requestWithOrgID(http.MethodPost, "/search", []byte(`{"query":"deploy","mode":"content","limit":3}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResults(t, w), 1)
	mockSvc.AssertExpectations(t)
}

func TestSearchHandler_TitleMode(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	mockSvc.On("SearchDocumentsByTitle", mock.Anything, testOrgID, "deploy", 0).
		Return([]service.DocumentMatch{}, nil)

	req := requestWithOrgID(http.MethodPost, "/search", []byte(`{"query":"deploy","mode":"title"}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeResults(t, w))
}

func TestSearchHandler_UnknownMode(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	req := requestWithOrgID(http.MethodPost, "/search", []byte(`{"query":"deploy","mode":"fuzzy"}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_InvalidStrategy(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	mockSvc.On("HybridSearchDocuments", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidSearchStrategy)

	req := requestWithOrgID(http.MethodPost, "/search", []byte(`{"query":"deploy","strategy":"sideways"}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeValidation, resp["code"])
}

func TestSearchHandler_Unauthorized(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchHandler_SearchInDocument(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	mockSvc.On("SearchInDocument", mock.Anything, testOrgID, "doc-1", "install", 4).
		Return([]service.ChunkMatch{{ChunkID: "c1", DocumentID: "doc-1", Heading: "Setup", Similarity: 0.7}}, nil)

	req := withURLParam(requestWithOrgID(http.MethodGet, "/documents/doc-1/search?q=install&limit=4", nil), "id", "doc-1")
	w := httptest.NewRecorder()

	handler.SearchInDocument(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	results := decodeResults(t, w)
	require.Len(t, results, 1)
	assert.Equal(t, "Setup", results[0].(map[string]any)["heading"])
	mockSvc.AssertExpectations(t)
}

func TestSearchHandler_SearchInDocument_BadLimit(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	req := withURLParam(requestWithOrgID(http.MethodGet, "/documents/doc-1/search?q=x&limit=many", nil), "id", "doc-1")
	w := httptest.NewRecorder()

	handler.SearchInDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Related_ByTitleDefault(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	mockSvc.On("FindRelatedDocuments", mock.Anything, testOrgID, "doc-1", 0).
		Return([]service.DocumentMatch{{DocumentID: "doc-2"}}, nil)

	req := withURLParam(requestWithOrgID(http.MethodGet, "/documents/doc-1/related", nil), "id", "doc-1")
	w := httptest.NewRecorder()

	handler.Related(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestSearchHandler_Related_ByContent(t *testing.T) {
	mockSvc := new(MockSearchService)
	handler := NewSearchHandler(mockSvc, 0.3)

	mockSvc.On("FindRelatedDocumentsByContent", mock.Anything, testOrgID, "doc-1", 2).
		Return(nil, domain.ErrDocumentNotFound)

	req := withURLParam(requestWithOrgID(http.MethodGet, "/documents/doc-1/related?by=content&limit=2", nil), "id", "doc-1")
	w := httptest.NewRecorder()

	handler.Related(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}
