package handlers

import (
	"strconv"

	"nexus/internal/services/alert"
	"nexus/internal/services/dashboard"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// AlertsHandler serves the live alert feed and the recent-alerts query.
type AlertsHandler struct {
	broadcaster *alert.Broadcaster
	dashboard   dashboard.Service
}

func NewAlertsHandler(broadcaster *alert.Broadcaster, dashboardService dashboard.Service) *AlertsHandler {
	return &AlertsHandler{broadcaster: broadcaster, dashboard: dashboardService}
}

// UpgradeRequired gates the live endpoint to websocket upgrade requests.
func (h *AlertsHandler) UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Live registers the connection as an alert subscriber for its
// lifetime. The read loop only exists to observe disconnects; clients
// never send application payloads.
func (h *AlertsHandler) Live() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id := uuid.NewString()
		h.broadcaster.Register(id, conn)
		defer h.broadcaster.Unregister(id)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// Recent returns flagged alerts from the last N hours (default 24).
func (h *AlertsHandler) Recent(c *fiber.Ctx) error {
	hours, _ := strconv.Atoi(c.Query("hours", "24"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	recent, err := h.dashboard.Recent(c.Context(), hours, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(recent)
}
