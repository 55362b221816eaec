package handler

import (
	"net/http"

	"github.com/facelens/backend/internal/contextkeys"
	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/service"
)

// BillingHandler handles the read-only billing summary endpoint.
type BillingHandler struct {
	billing *service.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billing *service.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// Summary handles GET /api/billing.
func (h *BillingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	summary, err := h.billing.Summary(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, summary)
}

// Payments handles GET /api/billing/payments.
func (h *BillingHandler) Payments(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	payments, err := h.billing.Payments(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, payments)
}
