package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

type Service struct {
	DB     *gorm.DB
	logger zerolog.Logger
}

func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{DB: db, logger: logger}
}

type CreateInput struct {
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      *time.Time
	AssignmentID *uuid.UUID
}

// Deadline mirrors an assignment deadline into userID's calendar using tx.
func (s *Service) Deadline(tx *gorm.DB, userID uuid.UUID, a *models.Assignment) error {
	id := a.ID
	ev := models.CalendarEvent{
		UserID:       userID,
		AssignmentID: &id,
		Title:        "Deadline: " + a.Title,
		Description:  "Assignment deadline",
		StartDate:    a.Deadline,
	}
	return tx.Create(&ev).Error
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*models.CalendarEvent, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	errs := apperr.FieldErrors{}
	if in.Title == "" || len([]rune(in.Title)) > 200 {
		errs.Add("title", "title must be between 1 and 200 characters")
	}
	if len([]rune(in.Description)) > 1000 {
		errs.Add("description", "description must be at most 1000 characters")
	}
	if in.StartDate.IsZero() {
		errs.Add("start_date", "start date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		errs.Add("end_date", "end date must not be before start date")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	ev := &models.CalendarEvent{
		UserID:       p.UserID,
		AssignmentID: in.AssignmentID,
		Title:        in.Title,
		Description:  in.Description,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	}
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, apperr.Internal("failed to create event", err)
	}
	return ev, nil
}

// List returns the caller's events starting inside [from, to]; zero bounds are open.
func (s *Service) List(ctx context.Context, p auth.Principal, from, to time.Time) ([]models.CalendarEvent, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).Where("user_id = ?", p.UserID)
	if !from.IsZero() {
		q = q.Where("start_date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("start_date <= ?", to)
	}

	var events []models.CalendarEvent
	if err := q.Order("start_date ASC").Find(&events).Error; err != nil {
		return nil, apperr.Internal("failed to list events", err)
	}
	return events, nil
}
