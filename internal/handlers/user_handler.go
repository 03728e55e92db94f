package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/users"
)

// UserHandler serves the admin user-management endpoints.
type UserHandler struct {
	Users *users.Service
}

func NewUserHandler(svc *users.Service) *UserHandler {
	return &UserHandler{Users: svc}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	f := users.ListFilter{
		Role:   models.Role(c.Query("role")),
		Search: c.Query("search"),
	}
	if v := c.Query("approved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err == nil {
			f.Approved = &approved
		}
	}
	items, err := h.Users.List(c.UserContext(), principal(c), f)
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *UserHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Users.Stats(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", st)
}

func (h *UserHandler) Approve(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.Users.ApproveFreelancer(c.UserContext(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, "Freelancer approved", userView(u))
}

type changeRoleReq struct {
	Role string `json:"role"`
}

func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req changeRoleReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := h.Users.ChangeRole(c.UserContext(), principal(c), id, models.Role(req.Role))
	if err != nil {
		return err
	}
	return ok(c, "Role updated", userView(u))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Users.Delete(c.UserContext(), principal(c), id); err != nil {
		return err
	}
	return ok(c, "User deleted", nil)
}
