package handler

import (
	"net/http"

	"github.com/facelens/backend/internal/contextkeys"
	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/service"
)

// SubscriptionHandler handles subscribe and cancel endpoints.
type SubscriptionHandler struct {
	memberships *service.MembershipService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(memberships *service.MembershipService) *SubscriptionHandler {
	return &SubscriptionHandler{memberships: memberships}
}

// Subscribe handles POST /api/subscribe.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	var req domain.SubscribeRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	pay, err := h.memberships.Subscribe(r.Context(), userID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "payment successful",
		"amount":  pay.Amount,
	})
}

// Cancel handles POST /api/cancel-subscription.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	if err := h.memberships.Cancel(r.Context(), userID); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "subscription cancelled"})
}
