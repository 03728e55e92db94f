package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/ai"
)

type AIHandler struct {
	Assistant *ai.Assistant
}

func NewAIHandler(a *ai.Assistant) *AIHandler {
	return &AIHandler{Assistant: a}
}

type AIChatReq struct {
	Content        string `json:"content"`
	AssignmentID   string `json:"assignment_id"`
	ConversationID string `json:"conversation_id"`
}

func (h *AIHandler) Send(c *fiber.Ctx) error {
	var req AIChatReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := ai.SendInput{Content: req.Content}
	var err error
	if in.AssignmentID, err = optionalUUID("assignment_id", req.AssignmentID); err != nil {
		return err
	}
	if in.ConversationID, err = optionalUUID("conversation_id", req.ConversationID); err != nil {
		return err
	}

	reply, err := h.Assistant.Send(c.UserContext(), principal(c), in)
	if err != nil {
		return err
	}
	return ok(c, "", reply)
}

func (h *AIHandler) Conversations(c *fiber.Ctx) error {
	items, err := h.Assistant.Conversations(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *AIHandler) Messages(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	msgs, err := h.Assistant.Messages(c.UserContext(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, "", msgs)
}
