package handler

import (
	"net/http"

	"github.com/facelens/backend/internal/repository"
)

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	db *repository.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *repository.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
	}

	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status["database"] = "error"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		status["database"] = "ok"
	}

	JSON(w, code, status)
}
