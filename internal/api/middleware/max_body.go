package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/docindex/internal/api"
)

// MaxBodyBytes caps request bodies at limit bytes. Requests that declare a
// larger Content-Length are refused with 413 before the handler runs; bodies
// without a declared length fail on read once they pass the cap.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				zerolog.Ctx(r.Context()).Warn().
					Int64("content_length", r.ContentLength).
					Int64("limit", limit).
					Msg("request body too large")
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
