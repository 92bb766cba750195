package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/docindex/internal/api"
	"github.com/cloo-solutions/docindex/internal/api/middleware"
	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/service"
)

type DocumentService interface {
	Put(ctx context.Context, input service.PutDocumentInput) (*domain.Document, error)
	Get(ctx context.Context, orgID, documentID string) (*service.DocumentStatusOutput, error)
	Reindex(ctx context.Context, orgID, documentID string) error
	Delete(ctx context.Context, orgID, documentID string) error
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// PutDocumentRequest carries either a content tree or Markdown source.
// Content wins when both are given.
type PutDocumentRequest struct {
	Title     string          `json:"title"`
	Published bool            `json:"published"`
	Content   json.RawMessage `json:"content,omitempty"`
	Markdown  string          `json:"markdown,omitempty"`
}

type DocumentResponse struct {
	ID         string     `json:"id"`
	OrgID      string     `json:"org_id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	Published  bool       `json:"published"`
	ChunkCount *int       `json:"chunk_count,omitempty"`
	IndexedAt  *time.Time `json:"indexed_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:        d.ID,
		OrgID:     d.OrgID,
		Title:     d.Title,
		Status:    string(d.Status),
		Published: d.Published,
		IndexedAt: d.IndexedAt,
		DeletedAt: d.DeletedAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (h *DocumentHandler) Put(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PutDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := []byte(req.Content)
	if len(state) == 0 && req.Markdown != "" {
		encoded, err := content.Encode(content.FromMarkdown([]byte(req.Markdown)))
		if err != nil {
			api.HandleError(w, r, err)
			return
		}
		state = encoded
	}

	doc, err := h.svc.Put(r.Context(), service.PutDocumentInput{
		ID:        chi.URLParam(r, "id"),
		OrgID:     orgID,
		Title:     req.Title,
		Published: req.Published,
		State:     state,
	})
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.Success(w, http.StatusAccepted, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	out, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	resp := documentToResponse(out.Document)
	resp.ChunkCount = &out.ChunkCount
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Reindex(r.Context(), orgID, chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.Success(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Delete(r.Context(), orgID, chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
