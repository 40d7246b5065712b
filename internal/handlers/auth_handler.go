package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/growup/backend/internal/middleware"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// IdentityService is the interface that wraps methods for the session lifecycle.
type IdentityService interface {
	// Method Register creates a new unpaid STUDENT account.
	//
	// If the request is invalid models.ErrValidation is returned, if the email is taken models.ErrDuplicateKey.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method Authenticate verifies the credentials and returns the identity together with a new session token.
	//
	// Unknown emails and wrong secrets fail with models.ErrInvalidCredentials, blocked accounts with models.ErrAccountBlocked.
	Authenticate(ctx context.Context, email, secret string) (*models.User, string, error)
	// Method Logout ends the session bound to token. Unknown tokens are ignored.
	Logout(ctx context.Context, token string)
}

// SubscriptionStatus is the interface that wraps the subscription state of a student.
type SubscriptionStatus interface {
	// Method IsActive reports whether student currently has paid access.
	IsActive(student *models.User) bool
	// Method RequiredAmount returns the price student has to pay for their subscription type.
	RequiredAmount(ctx context.Context, student *models.User) (int64, error)
}

// MeResponse describes the calling identity
type MeResponse struct {
	models.UserResponse
	IsActive       *bool  `json:"isActive,omitempty"`
	RequiredAmount *int64 `json:"requiredAmount,omitempty"`
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	identity      IdentityService
	subscriptions SubscriptionStatus
	sessionTTL    time.Duration
	secureCookie  bool
}

// NewAuthHandler creates a new auth handler. Session cookies live for sessionTTL.
func NewAuthHandler(
	identity IdentityService,
	subscriptions SubscriptionStatus,
	logger *zap.Logger,
	sessionTTL time.Duration,
	secureCookie bool,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{logger: logger},
		identity:      identity,
		subscriptions: subscriptions,
		sessionTTL:    sessionTTL,
		secureCookie:  secureCookie,
	}
}

// RegisterRoutes registers all auth handler routes.
// authMiddleware protects the routes that need a session.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(authMiddleware).Get("/me", h.Me)
	})
}

// Register handles POST /auth/register
// @Summary Register student
// @Description Creates a STUDENT account. The email is normalized and must be unique.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.UserResponse "Student registered"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, user.ToResponse())
}

// Login handles POST /auth/login and sets the session cookie
// @Summary Login user
// @Description Authenticates by email and password, returns a session token and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{} "Login successful"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 403 {object} map[string]string "Account blocked"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login rejected", zap.Error(err))
		h.handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, token, int(h.sessionTTL.Seconds()))
	h.respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user.ToResponse(),
	})
}

// Logout handles POST /auth/logout. It succeeds even without a session.
// @Summary Logout user
// @Description Ends the current session and clears the session cookie.
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]string "Logged out"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.ExtractToken(r); token != "" {
		h.identity.Logout(r.Context(), token)
	}

	h.setSessionCookie(w, "", -1)
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /auth/me
// @Summary Current identity
// @Description Returns the calling user with subscription status and the amount due.
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} handlers.MeResponse "Current user"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp := MeResponse{UserResponse: user.ToResponse()}
	if user.Role == models.RoleStudent && user.Student != nil {
		active := h.subscriptions.IsActive(user)
		resp.IsActive = &active
		if !active {
			amount, err := h.subscriptions.RequiredAmount(r.Context(), user)
			if err != nil {
				h.handleServiceError(w, r, err)
				return
			}
			resp.RequiredAmount = &amount
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// setSessionCookie writes the session token cookie; a negative maxAge clears it
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
