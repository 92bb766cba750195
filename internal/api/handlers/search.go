package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/docindex/internal/api"
	"github.com/cloo-solutions/docindex/internal/api/middleware"
	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/service"
)

type SearchService interface {
	HybridSearchDocuments(ctx context.Context, input service.HybridSearchInput) ([]service.DocumentMatch, error)
	SearchDocuments(ctx context.Context, orgID, query string, limit int) ([]service.DocumentMatch, error)
	SearchDocumentsByTitle(ctx context.Context, orgID, query string, limit int) ([]service.DocumentMatch, error)
	SearchInDocument(ctx context.Context, orgID, documentID, query string, limit int) ([]service.ChunkMatch, error)
	FindRelatedDocuments(ctx context.Context, orgID, documentID string, limit int) ([]service.DocumentMatch, error)
	FindRelatedDocumentsByContent(ctx context.Context, orgID, documentID string, limit int) ([]service.DocumentMatch, error)
}

const (
	SearchModeHybrid  = "hybrid"
	SearchModeContent = "content"
	SearchModeTitle   = "title"
)

type SearchHandler struct {
	svc   SearchService
	floor float64
}

// NewSearchHandler creates a handler that applies floor to hybrid results
// unless a request asks for its own minimum similarity.
func NewSearchHandler(svc SearchService, floor float64) *SearchHandler {
	return &SearchHandler{svc: svc, floor: floor}
}

type SearchRequest struct {
	Query         string   `json:"query"`
	Mode          string   `json:"mode,omitempty"`
	Strategy      string   `json:"strategy,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

type ChunkMatchResponse struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	Heading      string  `json:"heading,omitempty"`
	HeadingLevel int     `json:"heading_level,omitempty"`
	Breadcrumb   string  `json:"breadcrumb,omitempty"`
	Similarity   float64 `json:"similarity"`
}

type DocumentMatchResponse struct {
	DocumentID    string               `json:"document_id"`
	Title         string               `json:"title"`
	MatchType     string               `json:"match_type"`
	Similarity    float64              `json:"similarity"`
	UpdatedAt     time.Time            `json:"updated_at"`
	ContentChunks []ChunkMatchResponse `json:"content_chunks"`
}

type SearchResponse struct {
	Results []DocumentMatchResponse `json:"results"`
}

type ChunkSearchResponse struct {
	Results []ChunkMatchResponse `json:"results"`
}

func chunkToResponse(c service.ChunkMatch) ChunkMatchResponse {
	return ChunkMatchResponse{
		ChunkID:      c.ChunkID,
		DocumentID:   c.DocumentID,
		ChunkIndex:   c.ChunkIndex,
		Content:      c.Content,
		Heading:      c.Heading,
		HeadingLevel: c.HeadingLevel,
		Breadcrumb:   c.Breadcrumb,
		Similarity:   c.Similarity,
	}
}

func chunksToResponse(chunks []service.ChunkMatch) []ChunkMatchResponse {
	out := make([]ChunkMatchResponse, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, chunkToResponse(c))
	}
	return out
}

func matchesToResponse(matches []service.DocumentMatch) *SearchResponse {
	resp := &SearchResponse{Results: make([]DocumentMatchResponse, 0, len(matches))}
	for _, m := range matches {
		resp.Results = append(resp.Results, DocumentMatchResponse{
			DocumentID:    m.DocumentID,
			Title:         m.Title,
			MatchType:     string(m.MatchType),
			Similarity:    m.Similarity,
			UpdatedAt:     m.UpdatedAt,
			ContentChunks: chunksToResponse(m.ContentChunks),
		})
	}
	return resp
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		matches []service.DocumentMatch
		err     error
	)
	switch req.Mode {
	case "", SearchModeHybrid:
		matches, err = h.svc.HybridSearchDocuments(r.Context(), service.HybridSearchInput{
			OrgID:    orgID,
			Query:    req.Query,
			Strategy: req.Strategy,
			Limit:    req.Limit,
		})
		if err == nil {
			floor := h.floor
			if req.MinSimilarity != nil {
				floor = *req.MinSimilarity
			}
			matches = service.ApplySimilarityFloor(matches, floor, req.Limit)
		}
	case SearchModeContent:
		matches, err = h.svc.SearchDocuments(r.Context(), orgID, req.Query, req.Limit)
	case SearchModeTitle:
		matches, err = h.svc.SearchDocumentsByTitle(r.Context(), orgID, req.Query, req.Limit)
	default:
		api.Error(w, http.StatusBadRequest, "mode must be one of hybrid, content, title")
		return
	}
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.Success(w, http.StatusOK, matchesToResponse(matches))
}

func (h *SearchHandler) SearchInDocument(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, err := queryLimit(r)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	chunks, err := h.svc.SearchInDocument(r.Context(), orgID, chi.URLParam(r, "id"), r.URL.Query().Get("q"), limit)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.Success(w, http.StatusOK, &ChunkSearchResponse{Results: chunksToResponse(chunks)})
}

func (h *SearchHandler) Related(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, err := queryLimit(r)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	documentID := chi.URLParam(r, "id")
	var matches []service.DocumentMatch
	switch r.URL.Query().Get("by") {
	case "", SearchModeTitle:
		matches, err = h.svc.FindRelatedDocuments(r.Context(), orgID, documentID, limit)
	case SearchModeContent:
		matches, err = h.svc.FindRelatedDocumentsByContent(r.Context(), orgID, documentID, limit)
	default:
		api.Error(w, http.StatusBadRequest, "by must be title or content")
		return
	}
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.Success(w, http.StatusOK, matchesToResponse(matches))
}

// queryLimit reads the optional limit query parameter. Zero means the
// service default.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "limit must be a non-negative integer", err)
	}
	return n, nil
}
