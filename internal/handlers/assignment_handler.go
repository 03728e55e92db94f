package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/assignment"
)

type AssignmentHandler struct {
	Svc *assignment.Service
}

type CreateAssignmentReq struct {
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Tags              []string         `json:"tags"`
	Deadline          time.Time        `json:"deadline"`
	Price             *decimal.Decimal `json:"price"`
	VideoRequirements string           `json:"video_requirements"`
	Files             []models.FileRef `json:"files"`
}

func (h *AssignmentHandler) Create(c *fiber.Ctx) error {
	var req CreateAssignmentReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.Svc.Create(c.UserContext(), principal(c), assignment.CreateInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Tags:              req.Tags,
		Deadline:          req.Deadline,
		Price:             req.Price,
		VideoRequirements: req.VideoRequirements,
		Files:             req.Files,
	})
	if err != nil {
		return err
	}
	return created(c, "Assignment created", a)
}

func (h *AssignmentHandler) List(c *fiber.Ctx) error {
	f := assignment.ListFilter{
		Status:   models.AssignmentStatus(c.Query("status")),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort"),
		Mine:     c.QueryBool("mine"),
	}
	if v, err := decimal.NewFromString(c.Query("min_price")); err == nil {
		f.MinPrice = &v
	}
	if v, err := decimal.NewFromString(c.Query("max_price")); err == nil {
		f.MaxPrice = &v
	}

	items, err := h.Svc.List(c.UserContext(), principal(c), f)
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *AssignmentHandler) MyWork(c *fiber.Ctx) error {
	items, err := h.Svc.MyWork(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *AssignmentHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.Svc.Get(c.UserContext(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, "", a)
}

func (h *AssignmentHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Svc.Stats(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", st)
}

func (h *AssignmentHandler) AdminStats(c *fiber.Ctx) error {
	st, err := h.Svc.AdminStats(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", st)
}

type filesReq struct {
	Files []models.FileRef `json:"files"`
}

func (h *AssignmentHandler) AddFiles(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req filesReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	files, err := h.Svc.AddFiles(c.UserContext(), principal(c), id, req.Files)
	if err != nil {
		return err
	}
	return created(c, "Files added", files)
}

type lifecycleOp func(context.Context, auth.Principal, uuid.UUID) (*models.Assignment, error)

// byID adapts the lifecycle operations that take only the assignment id.
func byID(message string, op lifecycleOp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUUID(c, "id")
		if err != nil {
			return err
		}
		a, err := op(c.UserContext(), principal(c), id)
		if err != nil {
			return err
		}
		return ok(c, message, a)
	}
}

func (h *AssignmentHandler) Publish() fiber.Handler {
	return byID("Assignment published", h.Svc.Publish)
}

func (h *AssignmentHandler) Accept() fiber.Handler {
	return byID("Assignment accepted", h.Svc.Accept)
}

func (h *AssignmentHandler) StartWork() fiber.Handler {
	return byID("Work started", h.Svc.StartWork)
}

func (h *AssignmentHandler) MarkAsPaid() fiber.Handler {
	return byID("Assignment marked as paid", h.Svc.MarkAsPaid)
}

type SubmitWorkReq struct {
	Files []string `json:"files"`
	Notes string   `json:"notes"`
}

func (h *AssignmentHandler) SubmitWork(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req SubmitWorkReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.Svc.SubmitWork(c.UserContext(), principal(c), id, req.Files, req.Notes)
	if err != nil {
		return err
	}
	return ok(c, "Work submitted", a)
}

type ReviewReq struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

func (h *AssignmentHandler) Review(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req ReviewReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.Svc.ReviewSubmission(c.UserContext(), principal(c), id, req.Approved, req.Feedback)
	if err != nil {
		return err
	}
	return ok(c, "Review recorded", a)
}
