package handlers

import (
	"strconv"

	"nexus/internal/models"
	"nexus/internal/services/risk"

	"github.com/gofiber/fiber/v2"
)

// OperationalHandler serves the internal-fraud analysis endpoints.
type OperationalHandler struct {
	risk risk.Service
}

func NewOperationalHandler(riskService risk.Service) *OperationalHandler {
	return &OperationalHandler{risk: riskService}
}

// AnalyzeTeller scores one teller's daily metrics.
func (h *OperationalHandler) AnalyzeTeller(c *fiber.Ctx) error {
	var input models.TellerEvent
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.TellerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Teller ID is required",
		})
	}

	analysis, err := h.risk.AnalyzeTeller(c.Context(), input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(analysis)
}

// AnalyzeCash scores one drawer reconciliation.
func (h *OperationalHandler) AnalyzeCash(c *fiber.Ctx) error {
	var input models.CashHandlingEvent
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.TellerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Teller ID is required",
		})
	}
	if input.ExpectedAmount < 0 || input.ActualAmount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Amounts must not be negative",
		})
	}

	analysis, err := h.risk.AnalyzeCash(c.Context(), input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(analysis)
}

// DetectCollusion runs pattern detection over a transaction batch.
func (h *OperationalHandler) DetectCollusion(c *fiber.Ctx) error {
	var input struct {
		Transactions []models.CollusionTransaction `json:"transactions"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	return c.Status(fiber.StatusOK).JSON(h.risk.DetectCollusion(input.Transactions))
}

// UpdateBaseline replaces a teller's rolling profile.
func (h *OperationalHandler) UpdateBaseline(c *fiber.Ctx) error {
	tellerID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || tellerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teller ID",
		})
	}

	var input struct {
		AvgVariance float64 `json:"avg_variance"`
		AvgTxCount  float64 `json:"avg_tx_count"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.AvgVariance < 0 || input.AvgTxCount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Baseline values must be positive",
		})
	}

	baseline, err := h.risk.UpdateBaseline(c.Context(), uint(tellerID), input.AvgVariance, input.AvgTxCount)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(baseline)
}
