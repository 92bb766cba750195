package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cloo-solutions/docindex/internal/api"
	"github.com/cloo-solutions/docindex/internal/api/handlers"
	"github.com/cloo-solutions/docindex/internal/api/middleware"
)

type RouterConfig struct {
	Logger          zerolog.Logger
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Content states can be large; a few megabytes covers long documents.
	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.OrgScope)

		r.Route("/documents/{id}", func(r chi.Router) {
			r.Put("/", cfg.DocumentHandler.Put)
			r.Get("/", cfg.DocumentHandler.Get)
			r.Delete("/", cfg.DocumentHandler.Delete)
			r.Post("/reindex", cfg.DocumentHandler.Reindex)
			r.Get("/search", cfg.SearchHandler.SearchInDocument)
			r.Get("/related", cfg.SearchHandler.Related)
		})

		r.Post("/search", cfg.SearchHandler.Search)
	})

	return r
}
