// Package middleware holds the HTTP middleware chain of the portal API
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "session_token"

// SessionResolver is the interface that wraps session token resolution
type SessionResolver interface {
	// Method ResolveSession returns the live identity bound to token.
	//
	// It fails with models.ErrNoSession, models.ErrStaleSession or models.ErrAccountBlocked.
	ResolveSession(ctx context.Context, token string) (*models.User, error)
}

// ExtractToken returns the session token from the Authorization header or the session cookie
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware resolves the session token and puts the identity into the request context
func AuthMiddleware(resolver SessionResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				writeSessionError(w, r, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuthMiddleware resolves the session token when one is present.
// Requests without a usable session continue anonymously.
func OptionalAuthMiddleware(resolver SessionResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				logger.Debug("continuing without session", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, models.ErrAccountBlocked):
		writeError(w, http.StatusForbidden, "account blocked")
	case errors.Is(err, models.ErrNoSession), errors.Is(err, models.ErrStaleSession):
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
	default:
		logger.Error("failed to resolve session", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
