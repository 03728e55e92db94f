package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/messaging"
)

type MessageHandler struct {
	Svc *messaging.Service
}

func NewMessageHandler(svc *messaging.Service) *MessageHandler {
	return &MessageHandler{Svc: svc}
}

type SendMessageReq struct {
	ReceiverID   string           `json:"receiver_id"`
	Content      string           `json:"content"`
	AssignmentID string           `json:"assignment_id"`
	ProjectID    string           `json:"project_id"`
	Files        []models.FileRef `json:"files"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req SendMessageReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	receiver, err := optionalUUID("receiver_id", req.ReceiverID)
	if err != nil {
		return err
	}
	in := messaging.SendInput{Content: req.Content, Files: req.Files}
	if receiver != nil {
		in.ReceiverID = *receiver
	}
	if in.AssignmentID, err = optionalUUID("assignment_id", req.AssignmentID); err != nil {
		return err
	}
	if in.ProjectID, err = optionalUUID("project_id", req.ProjectID); err != nil {
		return err
	}

	msg, err := h.Svc.Send(c.UserContext(), principal(c), in)
	if err != nil {
		return err
	}
	return created(c, "Message sent", msg)
}

// Conversation returns the thread with :userId, optionally narrowed to one
// assignment via ?assignment_id=.
func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	other, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	assignmentID, err := optionalUUID("assignment_id", c.Query("assignment_id"))
	if err != nil {
		return err
	}
	msgs, err := h.Svc.Conversation(c.UserContext(), principal(c), other, assignmentID)
	if err != nil {
		return err
	}
	return ok(c, "", msgs)
}

func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	items, err := h.Svc.Conversations(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *MessageHandler) MarkAsRead(c *fiber.Ctx) error {
	other, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	n, err := h.Svc.MarkAsRead(c.UserContext(), principal(c), other)
	if err != nil {
		return err
	}
	return ok(c, "Messages marked as read", fiber.Map{"updated": n})
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.Svc.UnreadCount(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", fiber.Map{"count": n})
}
