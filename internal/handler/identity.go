package handler

import (
	"net/http"

	"github.com/segyhp/lending-ledger/internal/service"
	"github.com/segyhp/lending-ledger/pkg/response"
)

// Identity is established upstream; these headers carry it to the ledger.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
	HeaderIdemKey   = "Idempotency-Key"

	RoleAdmin = "admin"
)

// ActorMiddleware attaches the caller's identity to the request context so
// audit records name who made each change.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(HeaderActorID); actor != "" {
			r = r.WithContext(service.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers that are not identified as admins.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderActorID) == "" {
			response.Unauthorized(w, "Missing "+HeaderActorID+" header")
			return
		}
		if r.Header.Get(HeaderActorRole) != RoleAdmin {
			response.Forbidden(w, "Admin role required")
			return
		}
		next(w, r)
	}
}
