package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// SettingsReader is the interface that wraps the public settings view.
type SettingsReader interface {
	// Method PublicView returns the settings with the address and mobile hidden when their show flags are off.
	PublicView(ctx context.Context) (*models.Settings, error)
}

// AdReader is the interface that wraps the ads shown to a viewer.
type AdReader interface {
	// Method Active returns the active ads of placement for viewer, who may be nil.
	//
	// An empty placement matches every placement. Nothing is returned when ads are disabled.
	Active(ctx context.Context, viewer *models.User, placement models.AdPlacement) ([]models.Ad, error)
}

// PlanReader is the interface that wraps the plan catalog.
type PlanReader interface {
	// Method ListActive returns the plans that can be purchased.
	ListActive(ctx context.Context) ([]models.Plan, error)
}

// PublicHandler serves the pages that do not need a session
type PublicHandler struct {
	BaseHandler
	settings SettingsReader
	ads      AdReader
	plans    PlanReader
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(settings SettingsReader, ads AdReader, plans PlanReader, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		BaseHandler: BaseHandler{logger: logger},
		settings:    settings,
		ads:         ads,
		plans:       plans,
	}
}

// RegisterRoutes registers all public routes.
// optionalAuth resolves a session when one is sent so ads can depend on the viewer.
func (h *PublicHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Get("/settings", h.GetSettings)
	r.Get("/plans", h.GetPlans)
	r.With(optionalAuth).Get("/ads", h.GetAds)
}

// GetSettings handles GET /settings
// @Summary Get settings
// @Description Returns the public institution settings. Admin contact fields are hidden unless enabled.
// @Tags public
// @Produce json
// @Success 200 {object} models.Settings "Settings"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings [get]
func (h *PublicHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.PublicView(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, settings)
}

// GetPlans handles GET /plans
// @Summary List active plans
// @Tags public
// @Produce json
// @Success 200 {array} models.Plan "Active plans"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /plans [get]
func (h *PublicHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListActive(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, plans)
}

// GetAds handles GET /ads?placement=
// @Summary List active ads
// @Description Returns the active ads for a placement. A session is optional.
// @Tags public
// @Produce json
// @Param placement query string false "Placement: HEADER, FOOTER or CONTENT"
// @Success 200 {array} models.Ad "Ads"
// @Failure 400 {object} map[string]string "Invalid placement"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads [get]
func (h *PublicHandler) GetAds(w http.ResponseWriter, r *http.Request) {
	placement := models.AdPlacement(strings.ToUpper(trimmedQuery(r, "placement")))
	if placement != "" && !placement.Valid() {
		h.respondError(w, http.StatusBadRequest, "invalid placement")
		return
	}

	ads, err := h.ads.Active(r.Context(), currentUser(r), placement)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, ads)
}
