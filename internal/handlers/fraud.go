// Package handlers contains the fiber HTTP handlers. Handlers validate
// request shape at the boundary; the scoring services assume well-typed
// input.
package handlers

import (
	"nexus/internal/models"
	"nexus/internal/services/risk"

	"github.com/gofiber/fiber/v2"
)

// FraudHandler serves the customer-facing fraud analysis endpoints.
type FraudHandler struct {
	risk risk.Service
}

func NewFraudHandler(riskService risk.Service) *FraudHandler {
	return &FraudHandler{risk: riskService}
}

// AnalyzeTransaction scores one customer transaction.
func (h *FraudHandler) AnalyzeTransaction(c *fiber.Ctx) error {
	var input models.TransactionEvent
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Amount must be greater than zero",
		})
	}
	if input.AvgAmount < 0 || input.Count24h < 0 || input.Locations24h < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Negative counters are not allowed",
		})
	}

	analysis, err := h.risk.AnalyzeTransaction(c.Context(), input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(analysis)
}

// AnalyzeCheck scores one deposited check.
func (h *FraudHandler) AnalyzeCheck(c *fiber.Ctx) error {
	var input models.CheckEvent
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.CheckNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Check number is required",
		})
	}
	if input.SignatureScore < 0 || input.SignatureScore > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Signature match score must be between 0 and 1",
		})
	}

	analysis, err := h.risk.AnalyzeCheck(c.Context(), input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(analysis)
}
