package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// UserService is the interface that wraps methods for admin user management.
type UserService interface {
	// Method List returns the users matching filter.
	List(ctx context.Context, actor *models.User, filter models.UserFilter) ([]models.User, error)
	// Method Get returns the user with id.
	//
	// If the user does not exist models.ErrNotFound is returned.
	Get(ctx context.Context, actor *models.User, id string) (*models.User, error)
	// Method Create adds a user with any role.
	Create(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error)
	// Method Update edits a user profile or role.
	//
	// Changes that would leave no active admin fail with models.ErrLastAdmin.
	Update(ctx context.Context, actor *models.User, id string, req *models.UpdateUserRequest) (*models.User, error)
	// Method SetBlocked blocks or unblocks a user and ends the sessions of a blocked user.
	SetBlocked(ctx context.Context, actor *models.User, id string, blocked bool) (*models.User, error)
	// Method Delete removes a user. Deleting a missing user is not an error.
	Delete(ctx context.Context, actor *models.User, id string) error
}

// PlanService is the interface that wraps methods for subscription plan management.
type PlanService interface {
	// Method List returns every plan.
	List(ctx context.Context) ([]models.Plan, error)
	// Method Create adds a plan.
	Create(ctx context.Context, actor *models.User, req *models.CreatePlanRequest) (*models.Plan, error)
	// Method Update edits a plan.
	Update(ctx context.Context, actor *models.User, id string, patch *models.PlanPatch) (*models.Plan, error)
	// Method Delete removes a plan.
	Delete(ctx context.Context, actor *models.User, id string) error
}

// AdService is the interface that wraps methods for advertisement management.
type AdService interface {
	// Method List returns every ad.
	List(ctx context.Context, actor *models.User) ([]models.Ad, error)
	// Method Create adds an ad.
	Create(ctx context.Context, actor *models.User, req *models.CreateAdRequest) (*models.Ad, error)
	// Method Update edits an ad.
	Update(ctx context.Context, actor *models.User, id string, patch *models.AdPatch) (*models.Ad, error)
	// Method Delete removes an ad.
	Delete(ctx context.Context, actor *models.User, id string) error
}

// SettingsUpdater is the interface that wraps the settings update.
type SettingsUpdater interface {
	// Method Update merges patch into the settings on behalf of actorID, who must be an active ADMIN.
	//
	// An invalid patch fails with models.ErrValidation and leaves the settings unchanged.
	Update(ctx context.Context, patch *models.SettingsPatch, actorID string) (*models.Settings, error)
}

// AuditReader is the interface that wraps the audit log listing.
type AuditReader interface {
	// Method List returns up to n entries, most recent first.
	List(ctx context.Context, actor *models.User, n int) ([]models.AuditLogEntry, error)
}

// OverviewService is the interface that wraps the admin dashboard summary.
type OverviewService interface {
	// Method Overview returns revenue, active students, totals and the latest audit activity.
	Overview(ctx context.Context, actor *models.User) (*models.Overview, error)
}

// BlockRequest toggles the blocked flag of a user
type BlockRequest struct {
	Blocked bool `json:"blocked"`
}

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	BaseHandler
	users    UserService
	plans    PlanService
	ads      AdService
	settings SettingsUpdater
	audit    AuditReader
	payments PaymentService
	overview OverviewService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	users UserService,
	plans PlanService,
	ads AdService,
	settings SettingsUpdater,
	audit AuditReader,
	payments PaymentService,
	overview OverviewService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler: BaseHandler{logger: logger},
		users:       users,
		plans:       plans,
		ads:         ads,
		settings:    settings,
		audit:       audit,
		payments:    payments,
		overview:    overview,
	}
}

// RegisterRoutes registers all admin handler routes
// Note: This assumes the router already restricts access to ADMIN
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/overview", h.Overview)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
		r.Patch("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Post("/users/{id}/block", h.BlockUser)

		r.Get("/plans", h.ListPlans)
		r.Post("/plans", h.CreatePlan)
		r.Patch("/plans/{id}", h.UpdatePlan)
		r.Delete("/plans/{id}", h.DeletePlan)

		r.Get("/ads", h.ListAds)
		r.Post("/ads", h.CreateAd)
		r.Patch("/ads/{id}", h.UpdateAd)
		r.Delete("/ads/{id}", h.DeleteAd)

		r.Put("/settings", h.UpdateSettings)
		r.Get("/audit", h.ListAudit)
		r.Get("/payments", h.ListPayments)
		r.Post("/payments/manual", h.RecordManualPayment)
	})
}

// Overview handles GET /admin/overview
// @Summary Admin overview
// @Description Returns revenue, active students, totals and the latest audit activity. Requires ADMIN role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.Overview "Overview"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/overview [get]
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.overview.Overview(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, overview)
}

// ListUsers handles GET /admin/users?role=&search=
// @Summary List users
// @Description Requires ADMIN role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param role query string false "Role: ADMIN, TEACHER or STUDENT"
// @Param search query string false "Matches name, email or mobile"
// @Success 200 {array} models.UserResponse "Users"
// @Failure 400 {object} map[string]string "Invalid role"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := models.UserFilter{Search: trimmedQuery(r, "search")}
	if roleParam := trimmedQuery(r, "role"); roleParam != "" {
		role := models.Role(strings.ToUpper(roleParam))
		if !role.Valid() {
			h.respondError(w, http.StatusBadRequest, "invalid role")
			return
		}
		filter.Role = &role
	}

	users, err := h.users.List(r.Context(), currentUser(r), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toResponses(users))
}

// GetUser handles GET /admin/users/{id}
// @Summary Get user
// @Description Requires ADMIN role.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse "User"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user.ToResponse())
}

// CreateUser handles POST /admin/users
// @Summary Create user
// @Description Creates a user with any role. Requires ADMIN role.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateUserRequest true "User"
// @Success 201 {object} models.UserResponse "User created"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, user.ToResponse())
}

// UpdateUser handles PATCH /admin/users/{id}
// @Summary Update user
// @Description Edits a profile or role. The last active admin cannot be demoted.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Param request body models.UpdateUserRequest true "User update"
// @Success 200 {object} models.UserResponse "User updated"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Update(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user.ToResponse())
}

// BlockUser handles POST /admin/users/{id}/block
// @Summary Block or unblock user
// @Description Blocking ends every session of the user.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Param request body handlers.BlockRequest true "Blocked flag"
// @Success 200 {object} models.UserResponse "User updated"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id}/block [post]
func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.SetBlocked(r.Context(), currentUser(r), chi.URLParam(r, "id"), req.Blocked)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user.ToResponse())
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete user
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 204 "User deleted"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPlans handles GET /admin/plans
// @Summary List plans
// @Description Returns every plan including inactive ones.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Plan "Plans"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/plans [get]
func (h *AdminHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, plans)
}

// CreatePlan handles POST /admin/plans
// @Summary Create plan
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreatePlanRequest true "Plan"
// @Success 201 {object} models.Plan "Plan created"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/plans [post]
func (h *AdminHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlanRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.plans.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, plan)
}

// UpdatePlan handles PATCH /admin/plans/{id}
// @Summary Update plan
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Param patch body models.PlanPatch true "Plan patch"
// @Success 200 {object} models.Plan "Plan updated"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/plans/{id} [patch]
func (h *AdminHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var patch models.PlanPatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}

	plan, err := h.plans.Update(r.Context(), currentUser(r), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, plan)
}

// DeletePlan handles DELETE /admin/plans/{id}
// @Summary Delete plan
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Success 204 "Plan deleted"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/plans/{id} [delete]
func (h *AdminHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.plans.Delete(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAds handles GET /admin/ads
// @Summary List ads
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Ad "Ads"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/ads [get]
func (h *AdminHandler) ListAds(w http.ResponseWriter, r *http.Request) {
	ads, err := h.ads.List(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, ads)
}

// CreateAd handles POST /admin/ads
// @Summary Create ad
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateAdRequest true "Ad"
// @Success 201 {object} models.Ad "Ad created"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/ads [post]
func (h *AdminHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAdRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ad, err := h.ads.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, ad)
}

// UpdateAd handles PATCH /admin/ads/{id}
// @Summary Update ad
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Ad ID"
// @Param patch body models.AdPatch true "Ad patch"
// @Success 200 {object} models.Ad "Ad updated"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/ads/{id} [patch]
func (h *AdminHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	var patch models.AdPatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}

	ad, err := h.ads.Update(r.Context(), currentUser(r), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, ad)
}

// DeleteAd handles DELETE /admin/ads/{id}
// @Summary Delete ad
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Ad ID"
// @Success 204 "Ad deleted"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/ads/{id} [delete]
func (h *AdminHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := h.ads.Delete(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateSettings handles PUT /admin/settings
// @Summary Update settings
// @Description Merges the patch into the institution settings.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param patch body models.SettingsPatch true "Settings patch"
// @Success 200 {object} models.Settings "Settings updated"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/settings [put]
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}

	actorID := ""
	if actor := currentUser(r); actor != nil {
		actorID = actor.ID
	}

	settings, err := h.settings.Update(r.Context(), &patch, actorID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, settings)
}

// ListAudit handles GET /admin/audit?limit=
// @Summary List audit log
// @Description Returns the most recent audit entries first.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Maximum number of entries, default: 1000"
// @Success 200 {array} models.AuditLogEntry "Audit entries"
// @Failure 400 {object} map[string]string "Invalid limit parameter"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/audit [get]
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := models.AuditLogCapacity
	if limitParam := trimmedQuery(r, "limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			h.respondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.audit.List(r.Context(), currentUser(r), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, entries)
}

// ListPayments handles GET /admin/payments
// @Summary List payments
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.PaymentRecord "Payments"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	records, err := h.payments.List(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, records)
}

// RecordManualPayment handles POST /admin/payments/manual
// @Summary Record manual payment
// @Description Records an offline payment as SUCCESS and activates the subscription.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ManualPaymentRequest true "Manual payment"
// @Success 201 {object} models.PaymentRecord "Payment recorded"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/payments/manual [post]
func (h *AdminHandler) RecordManualPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ManualPaymentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	record, err := h.payments.RecordManual(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, record)
}
