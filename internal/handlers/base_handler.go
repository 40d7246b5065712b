// Package handlers adapts the portal services to the HTTP API
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/growup/backend/internal/middleware"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// BaseHandler carries the helpers shared by every handler
type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decodeJSON reads the request body into dst, answering 400 when it is malformed
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleServiceError maps a service error to its HTTP status.
// Unknown errors are logged and reported as 500 without details.
func (h *BaseHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrDuplicateKey):
		status, message = http.StatusConflict, "already exists"
	case errors.Is(err, models.ErrAlreadyApplied), errors.Is(err, models.ErrInvalidTransition):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, models.ErrNoSession), errors.Is(err, models.ErrStaleSession):
		status, message = http.StatusUnauthorized, "invalid or expired session"
	case errors.Is(err, models.ErrAccountBlocked):
		status, message = http.StatusForbidden, "account blocked"
	case errors.Is(err, models.ErrUnauthorized):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrLastAdmin):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, models.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrSubscriptionInactive):
		status, message = http.StatusPaymentRequired, "subscription inactive"
	default:
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	h.respondError(w, status, message)
}

// currentUser returns the authenticated identity, or nil for anonymous requests
func currentUser(r *http.Request) *models.User {
	user, _ := middleware.GetUser(r.Context())
	return user
}

// toResponses strips credentials from a user list
func toResponses(users []models.User) []models.UserResponse {
	result := make([]models.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, users[i].ToResponse())
	}
	return result
}

func trimmedQuery(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
