package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/calendar"
)

type CalendarHandler struct {
	Svc *calendar.Service
}

func NewCalendarHandler(svc *calendar.Service) *CalendarHandler {
	return &CalendarHandler{Svc: svc}
}

type CalendarEventReq struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	AssignmentID string     `json:"assignment_id"`
}

func (h *CalendarHandler) Create(c *fiber.Ctx) error {
	var req CalendarEventReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	assignmentID, err := optionalUUID("assignment_id", req.AssignmentID)
	if err != nil {
		return err
	}
	ev, err := h.Svc.Create(c.UserContext(), principal(c), calendar.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AssignmentID: assignmentID,
	})
	if err != nil {
		return err
	}
	return created(c, "Event created", ev)
}

// List accepts optional ?from= and ?to= RFC 3339 bounds.
func (h *CalendarHandler) List(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}
	items, err := h.Svc.List(c.UserContext(), principal(c), from, to)
	if err != nil {
		return err
	}
	return ok(c, "", items)
}
