package middleware

import (
	"net/http"
	"slices"

	"github.com/growup/backend/internal/models"
)

// RoleMiddleware admits identities whose role is one of roles. It must run after AuthMiddleware:
// a request without an identity is answered with 401, a blocked identity or another role with 403.
func RoleMiddleware(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			switch {
			case !ok:
				writeError(w, http.StatusUnauthorized, "authentication required")
			case user.IsBlocked:
				writeError(w, http.StatusForbidden, "account blocked")
			case !slices.Contains(roles, user.Role):
				writeError(w, http.StatusForbidden, "insufficient permissions")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
