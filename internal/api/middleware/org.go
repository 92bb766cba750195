package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/docindex/internal/api"
)

type contextKey string

const OrgIDKey contextKey = "org_id"

// OrgHeader carries the organization a request is scoped to. Authentication
// happens upstream; this service trusts the header.
const OrgHeader = "X-Org-ID"

// OrgScope rejects requests without an organization and stores it in the
// request context.
func OrgScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := strings.TrimSpace(r.Header.Get(OrgHeader))
		if orgID == "" {
			api.Error(w, http.StatusUnauthorized, "missing "+OrgHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), OrgIDKey, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetOrgID(ctx context.Context) string {
	orgID, _ := ctx.Value(OrgIDKey).(string)
	return orgID
}
