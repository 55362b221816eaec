package handler

import (
	"net/http"

	"github.com/facelens/backend/internal/contextkeys"
	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/service"
)

// AccountHandler handles account settings endpoints (email, password, API
// key).
type AccountHandler struct {
	auth *service.AuthService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(auth *service.AuthService) *AccountHandler {
	return &AccountHandler{auth: auth}
}

func callerID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	return userID, ok && userID != ""
}

// Email handles GET /api/account/email.
func (h *AccountHandler) Email(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"email": user.Email})
}

// ChangeEmail handles POST /api/account/change-email.
func (h *AccountHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	var req domain.ChangeEmailRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.auth.ChangeEmail(r.Context(), userID, &req); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"email": req.Email})
}

// ChangePassword handles POST /api/account/change-password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	var req domain.ChangePasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, &req); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// APIKey handles GET /api/account/api-key: issues a long-lived token for
// programmatic access to the metered API.
func (h *AccountHandler) APIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		Error(w, domain.ErrUnauthenticated("unauthorized"))
		return
	}

	token, err := h.auth.APIToken(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"key": token})
}
