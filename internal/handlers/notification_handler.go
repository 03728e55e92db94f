package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
)

type NotificationHandler struct {
	Svc *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{Svc: svc}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	items, err := h.Svc.List(c.UserContext(), principal(c), c.QueryBool("unread"), queryInt(c, "limit", 50))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.Svc.UnreadCount(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", fiber.Map{"count": n})
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.MarkAsRead(c.UserContext(), principal(c), id); err != nil {
		return err
	}
	return ok(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	n, err := h.Svc.MarkAllAsRead(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "All notifications marked as read", fiber.Map{"updated": n})
}
