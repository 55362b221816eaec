package handler

import (
	"net/http"

	"github.com/facelens/backend/internal/domain"
)

// PlanHandler serves the public plan description.
type PlanHandler struct {
	planID string
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planID string) *PlanHandler {
	return &PlanHandler{planID: planID}
}

// Get handles GET /api/plan.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.DefaultPlan(h.planID))
}
