package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// ContentService is the interface that wraps methods for study material access and management.
type ContentService interface {
	// Method Catalog returns the items viewer may see.
	//
	// Students without an active subscription get models.ErrSubscriptionInactive.
	Catalog(ctx context.Context, viewer *models.User) ([]models.Content, error)
	// Method Open returns one item for viewing and counts the view.
	Open(ctx context.Context, viewer *models.User, id string) (*models.ContentView, error)
	// Method Download returns one downloadable item and counts the download.
	Download(ctx context.Context, viewer *models.User, id string) (*models.ContentView, error)
	// Method Create uploads a new item on behalf of an ADMIN or TEACHER.
	Create(ctx context.Context, actor *models.User, req *models.CreateContentRequest) (*models.Content, error)
	// Method Update edits an item. Teachers may only edit their own uploads.
	Update(ctx context.Context, actor *models.User, id string, patch *models.ContentPatch) (*models.Content, error)
	// Method Delete removes an item. Teachers may only remove their own uploads.
	Delete(ctx context.Context, actor *models.User, id string) error
}

// ContentHandler handles study material requests
type ContentHandler struct {
	BaseHandler
	content ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(content ContentService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler: BaseHandler{logger: logger},
		content:     content,
	}
}

// RegisterRoutes registers the viewer routes.
// Note: This assumes the router already requires a session
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Get("/", h.Catalog)
		r.Get("/{id}", h.Open)
		r.Post("/{id}/download", h.Download)
	})
}

// RegisterStaffRoutes registers the upload and edit routes.
// Note: This assumes the router already restricts access to ADMIN and TEACHER
func (h *ContentHandler) RegisterStaffRoutes(r chi.Router) {
	r.Route("/staff/content", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Catalog handles GET /content
// @Summary List content
// @Description Returns the study material visible to the caller. Students need an active subscription.
// @Tags content
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Content "Visible content"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 402 {object} map[string]string "Subscription required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /content [get]
func (h *ContentHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.Catalog(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

// Open handles GET /content/{id}
// @Summary Open content
// @Description Returns the item with its watermark and counts a view.
// @Tags content
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Content ID"
// @Success 200 {object} models.ContentView "Content view"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 402 {object} map[string]string "Subscription required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /content/{id} [get]
func (h *ContentHandler) Open(w http.ResponseWriter, r *http.Request) {
	view, err := h.content.Open(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// Download handles POST /content/{id}/download
// @Summary Download content
// @Description Counts a download of a downloadable item.
// @Tags content
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Content ID"
// @Success 200 {object} models.ContentView "Content view"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 402 {object} map[string]string "Subscription required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /content/{id}/download [post]
func (h *ContentHandler) Download(w http.ResponseWriter, r *http.Request) {
	view, err := h.content.Download(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// Create handles POST /staff/content
// @Summary Create content
// @Description Adds study material. Requires ADMIN or TEACHER role.
// @Tags staff
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateContentRequest true "Content"
// @Success 201 {object} models.Content "Content created"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /staff/content [post]
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	item, err := h.content.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, item)
}

// Update handles PATCH /staff/content/{id}
// @Summary Update content
// @Description Edits study material. Teachers may only edit their own uploads.
// @Tags staff
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Content ID"
// @Param patch body models.ContentPatch true "Content patch"
// @Success 200 {object} models.Content "Content updated"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /staff/content/{id} [patch]
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ContentPatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}

	item, err := h.content.Update(r.Context(), currentUser(r), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /staff/content/{id}
// @Summary Delete content
// @Tags staff
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Content ID"
// @Success 204 "Content deleted"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /staff/content/{id} [delete]
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.content.Delete(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
