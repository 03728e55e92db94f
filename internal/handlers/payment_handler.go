package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/payment"
)

type PaymentHandler struct {
	Svc *payment.Service
}

func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{Svc: svc}
}

type CreatePaymentRequest struct {
	AssignmentID uuid.UUID       `json:"assignment_id"`
	FreelancerID string          `json:"freelancer_id"`
	Amount       decimal.Decimal `json:"amount"`
	UPIID        string          `json:"upi_id"`
	Screenshots  []string        `json:"screenshots"`
}

func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	freelancerID, err := optionalUUID("freelancer_id", req.FreelancerID)
	if err != nil {
		return err
	}

	pay, err := h.Svc.Create(c.UserContext(), principal(c), payment.CreateInput{
		AssignmentID: req.AssignmentID,
		FreelancerID: freelancerID,
		Amount:       req.Amount,
		UPIID:        req.UPIID,
		Screenshots:  req.Screenshots,
	})
	if err != nil {
		return err
	}
	return created(c, "Payment submitted for verification", pay)
}

type screenshotReq struct {
	FileURL string `json:"file_url"`
}

func (h *PaymentHandler) AddScreenshot(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req screenshotReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	shot, err := h.Svc.AddScreenshot(c.UserContext(), principal(c), id, req.FileURL)
	if err != nil {
		return err
	}
	return created(c, "Screenshot added", shot)
}

type VerifyPaymentRequest struct {
	Status string `json:"status"`
}

func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req VerifyPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	pay, err := h.Svc.Verify(c.UserContext(), principal(c), id, models.PaymentStatus(req.Status))
	if err != nil {
		return err
	}
	return ok(c, "Payment "+string(pay.Status), pay)
}

func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	pay, err := h.Svc.Get(c.UserContext(), principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, "", pay)
}

func (h *PaymentHandler) List(c *fiber.Ctx) error {
	items, err := h.Svc.List(c.UserContext(), principal(c), models.PaymentStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *PaymentHandler) Pending(c *fiber.Ctx) error {
	items, err := h.Svc.ListPending(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *PaymentHandler) All(c *fiber.Ctx) error {
	items, err := h.Svc.ListAll(c.UserContext(), principal(c), models.PaymentStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *PaymentHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Svc.Stats(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", st)
}
