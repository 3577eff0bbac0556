package handlers

import (
	"nexus/internal/services/dashboard"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the aggregate fraud dashboard.
type DashboardHandler struct {
	dashboard dashboard.Service
}

func NewDashboardHandler(dashboardService dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboardService}
}

// Summary returns current-day counts and volumes by tier.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.dashboard.Summary(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}
