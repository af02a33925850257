package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ListingBank/internal/app/repository"
	"go.uber.org/zap"
)

// AdminHandler serves the back-office notification feed.
type AdminHandler struct {
	logger        *zap.Logger
	notifications repository.AdminNotificationRepository
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(logger *zap.Logger, notifications repository.AdminNotificationRepository) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{logger: logger, notifications: notifications}
}

// Register wires admin routes onto a router already restricted to admins.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/notifications", h.ListUnread)
}

// ListUnread handles GET /api/admin/notifications
func (h *AdminHandler) ListUnread(c *fiber.Ctx) error {
	limit := 50
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 200 {
		limit = parsed
	}

	items, err := h.notifications.ListUnread(userContext(c), limit)
	if err != nil {
		h.logger.Error("failed to list admin notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list notifications",
		})
	}

	return c.JSON(fiber.Map{
		"notifications": items,
		"count":         len(items),
	})
}
