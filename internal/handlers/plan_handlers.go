package handlers

import (
	"net/http"

	"printforge/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers exposes the read-only plan catalog.
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// ListPlans handles GET /plans
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	plans := h.planService.List(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}
