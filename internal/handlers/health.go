package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports service liveness and anomaly model readiness.
type HealthHandler struct {
	modelReady func() bool
}

func NewHealthHandler(modelReady func() bool) *HealthHandler {
	if modelReady == nil {
		modelReady = func() bool { return false }
	}
	return &HealthHandler{modelReady: modelReady}
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "NEXUS - Operational Fraud Detection Platform",
		"status":    "operational",
		"version":   "0.1.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "nexus-api",
		"ml_ready":  h.modelReady(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
