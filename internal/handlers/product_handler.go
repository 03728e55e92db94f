package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/marketplace"
)

// ProductHandler serves the project marketplace.
type ProductHandler struct {
	Svc *marketplace.Service
}

func NewProductHandler(svc *marketplace.Service) *ProductHandler {
	return &ProductHandler{Svc: svc}
}

type ProjectReq struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Tags         []string         `json:"tags"`
	Price        decimal.Decimal  `json:"price"`
	AssignmentID string           `json:"assignment_id"`
	Files        []models.FileRef `json:"files"`
}

type ProjectUpdateReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Tags        []string         `json:"tags"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req ProjectReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	assignmentID, err := optionalUUID("assignment_id", req.AssignmentID)
	if err != nil {
		return err
	}
	project, err := h.Svc.Create(c.UserContext(), principal(c), marketplace.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Tags:         req.Tags,
		Price:        req.Price,
		AssignmentID: assignmentID,
		Files:        req.Files,
	})
	if err != nil {
		return err
	}
	return created(c, "Project published", project)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req ProjectUpdateReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.Svc.Update(c.UserContext(), principal(c), id, marketplace.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Price:       req.Price,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	return ok(c, "Project updated", project)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.UserContext(), principal(c), id); err != nil {
		return err
	}
	return ok(c, "Project deleted", nil)
}

func (h *ProductHandler) AddFiles(c *fiber.Ctx) error {
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

func (h *ProductHandler) List(c *fiber.Ctx) error {
	items, err := h.Svc.List(c.UserContext(), principal(c), marketplace.ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort"),
	})
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	project, err := h.Svc.Get(c.UserContext(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, "", project)
}

func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	items, err := h.Svc.Mine(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *ProductHandler) Purchase(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	purchase, err := h.Svc.Purchase(c.UserContext(), principal(c), id)
	if err != nil {
		return err
	}
	return created(c, "Project purchased", purchase)
}

func (h *ProductHandler) MyPurchases(c *fiber.Ctx) error {
	items, err := h.Svc.MyPurchases(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *ProductHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Svc.Stats(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", st)
}
