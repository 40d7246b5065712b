package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// PaymentService is the interface that wraps methods for the payment flow.
type PaymentService interface {
	// Method Initiate opens a PENDING payment for the calling student at the quoted price.
	Initiate(ctx context.Context, student *models.User, req *models.InitiatePaymentRequest) (*models.PaymentRecord, error)
	// Method Confirm applies the gateway outcome to a payment.
	//
	// A transition out of a final status fails with models.ErrInvalidTransition.
	Confirm(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.PaymentRecord, error)
	// Method RecordManual records an offline payment taken by an admin.
	RecordManual(ctx context.Context, actor *models.User, req *models.ManualPaymentRequest) (*models.PaymentRecord, error)
	// Method ListMine returns the payments of user.
	ListMine(ctx context.Context, user *models.User) ([]models.PaymentRecord, error)
	// Method List returns every payment, most recent first.
	List(ctx context.Context, actor *models.User) ([]models.PaymentRecord, error)
}

// PriceQuoter is the interface that wraps subscription pricing.
type PriceQuoter interface {
	// Method Quote returns the price of a subscription type and the plan it comes from, nil for the fallback price.
	Quote(ctx context.Context, subType models.SubscriptionType) (int64, *models.Plan, error)
}

// QuoteResponse is the price of a subscription type
type QuoteResponse struct {
	SubscriptionType models.SubscriptionType `json:"subscriptionType"`
	Amount           int64                   `json:"amount"`
	Plan             *models.Plan            `json:"plan,omitempty"`
}

// PaymentHandler handles payment requests
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
	quoter   PriceQuoter
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentService, quoter PriceQuoter, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: BaseHandler{logger: logger},
		payments:    payments,
		quoter:      quoter,
	}
}

// RegisterRoutes registers the routes of signed-in users.
// Note: This assumes the router already requires a session
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payments/quote", h.Quote)
	r.Post("/payments", h.Initiate)
	r.Get("/payments/mine", h.ListMine)
}

// RegisterWebhookRoutes registers the gateway callback.
// Note: This assumes the router already checks the API key
func (h *PaymentHandler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/payments/webhook", h.Webhook)
}

// Quote handles GET /payments/quote?type=
// Without a type the caller's own subscription type is quoted.
// @Summary Quote subscription price
// @Description Returns the amount due for a subscription type. Without a type the caller's own type is quoted.
// @Tags payments
// @Produce json
// @Security ApiKeyAuth
// @Param type query string false "Subscription type: OVERALL or CLASS_WISE"
// @Success 200 {object} handlers.QuoteResponse "Quote"
// @Failure 400 {object} map[string]string "Invalid subscription type"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /payments/quote [get]
func (h *PaymentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	subType := models.SubscriptionType(strings.ToUpper(trimmedQuery(r, "type")))
	if subType == "" {
		if user := currentUser(r); user != nil && user.Student != nil {
			subType = user.Student.SubscriptionType
		}
	}
	if !subType.Valid() {
		h.respondError(w, http.StatusBadRequest, "invalid subscription type")
		return
	}

	amount, plan, err := h.quoter.Quote(r.Context(), subType)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, QuoteResponse{SubscriptionType: subType, Amount: amount, Plan: plan})
}

// Initiate handles POST /payments
// @Summary Initiate payment
// @Description Creates a PENDING payment for the calling student.
// @Tags payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.InitiatePaymentRequest false "Payment request"
// @Success 201 {object} models.PaymentRecord "Payment created"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /payments [post]
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req models.InitiatePaymentRequest
	if r.ContentLength != 0 && !h.decodeJSON(w, r, &req) {
		return
	}

	record, err := h.payments.Initiate(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, record)
}

// ListMine handles GET /payments/mine
// @Summary List own payments
// @Tags payments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.PaymentRecord "Payments"
// @Failure 401 {object} map[string]string "Unauthorized - authentication required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /payments/mine [get]
func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	records, err := h.payments.ListMine(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, records)
}

// Webhook handles POST /payments/webhook
// @Summary Confirm payment
// @Description Gateway callback. Redelivery of the same outcome is a no-op.
// @Tags payments
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API Key"
// @Param request body models.ConfirmPaymentRequest true "Gateway outcome"
// @Success 200 {object} models.PaymentRecord "Payment confirmed"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid API key"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Payment already settled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmPaymentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	record, err := h.payments.Confirm(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}
