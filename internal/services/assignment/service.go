package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/db"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/calendar"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
)

type Service struct {
	DB       *gorm.DB
	notifier *notification.Service
	calendar *calendar.Service
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier *notification.Service, cal *calendar.Service, logger zerolog.Logger) *Service {
	return &Service{
		DB:       db,
		notifier: notifier,
		calendar: cal,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateInput struct {
	Title             string
	Description       string
	Category          string
	Tags              []string
	Deadline          time.Time
	Price             *decimal.Decimal
	VideoRequirements string
	Files             []models.FileRef
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*models.Assignment, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateCreate(in, s.now()); err != nil {
		return nil, err
	}

	tags, err := json.Marshal(normalizeTags(in.Tags))
	if err != nil {
		return nil, apperr.Internal("failed to encode tags", err)
	}

	a := &models.Assignment{
		StudentID:         p.UserID,
		Title:             in.Title,
		Description:       in.Description,
		Category:          in.Category,
		Tags:              datatypes.JSON(tags),
		Deadline:          in.Deadline,
		Price:             in.Price,
		VideoRequirements: in.VideoRequirements,
		Status:            models.AssignmentDraft,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		if err := createFiles(tx, a.ID, p.UserID, in.Files); err != nil {
			return err
		}
		return s.calendar.Deadline(tx, p.UserID, a)
	})
	if err != nil {
		return nil, apperr.Internal("failed to create assignment", err)
	}

	s.logger.Info().Str("assignment_id", a.ID.String()).Str("student_id", p.UserID.String()).Msg("assignment created")
	return s.load(ctx, a.ID)
}

func (s *Service) AddFiles(ctx context.Context, p auth.Principal, id uuid.UUID, files []models.FileRef) ([]models.AssignmentFile, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.Validation("files", "at least one file is required")
	}
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	a, err := s.find(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if a.StudentID != p.UserID {
		return nil, apperr.Forbidden("not your assignment")
	}

	if err := createFiles(s.DB.WithContext(ctx), a.ID, p.UserID, files); err != nil {
		return nil, apperr.Internal("failed to save files", err)
	}

	var out []models.AssignmentFile
	if err := s.DB.WithContext(ctx).Where("assignment_id = ?", id).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to load files", err)
	}
	return out, nil
}

func (s *Service) Publish(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Assignment, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}

	a, err := s.find(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if a.StudentID != p.UserID {
		return nil, apperr.Forbidden("not your assignment")
	}

	err = transition(s.DB.WithContext(ctx), id, models.AssignmentDraft, models.AssignmentPosted, map[string]interface{}{
		"updated_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Accept claims a posted assignment for the calling freelancer.
func (s *Service) Accept(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Assignment, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}
	if !p.IsApproved {
		return nil, apperr.Forbidden("freelancer account is not approved yet")
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.find(tx, id)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.AssignmentFreelancer{}).
			Where("assignment_id = ? AND freelancer_id = ?", id, p.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Duplicate("you have already accepted this assignment")
		}

		now := s.now()
		if err := transition(tx, id, models.AssignmentPosted, models.AssignmentAssigned, map[string]interface{}{
			"accepted_by": p.UserID,
			"updated_at":  now,
		}); err != nil {
			return err
		}

		join := models.AssignmentFreelancer{
			AssignmentID: id,
			FreelancerID: p.UserID,
			AcceptedAt:   now,
		}
		if err := tx.Create(&join).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.InvalidState("assignment is no longer available")
			}
			return err
		}

		if err := s.notifier.Write(tx, &ob, models.Notification{
			UserID:  a.StudentID,
			Title:   "Assignment Accepted",
			Message: "A freelancer has accepted your assignment: " + a.Title,
			Type:    models.NotifAssignment,
			Link:    "/dashboard/student/assignments/" + a.ID.String(),
		}); err != nil {
			return err
		}

		return s.calendar.Deadline(tx, p.UserID, a)
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to accept assignment")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Info().Str("assignment_id", id.String()).Str("freelancer_id", p.UserID.String()).Msg("assignment accepted")
	return s.load(ctx, id)
}

// StartWork moves an accepted assignment into progress. Repeating it while
// already in progress is a no-op.
func (s *Service) StartWork(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Assignment, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.find(tx, id)
		if err != nil {
			return err
		}
		join, err := acceptanceOf(tx, id, p.UserID)
		if err != nil {
			return err
		}
		if a.Status == models.AssignmentInProgress {
			return nil
		}

		now := s.now()
		if err := transition(tx, id, models.AssignmentAssigned, models.AssignmentInProgress, map[string]interface{}{
			"updated_at": now,
		}); err != nil {
			return err
		}
		return tx.Model(join).Update("started_at", now).Error
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to start work")
	}
	return s.load(ctx, id)
}

func (s *Service) SubmitWork(ctx context.Context, p auth.Principal, id uuid.UUID, files []string, notes string) (*models.Assignment, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			cleaned = append(cleaned, f)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperr.Validation("files", "at least one submitted file is required")
	}
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return nil, apperr.Internal("failed to encode files", err)
	}

	var ob notification.Outbox
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.find(tx, id)
		if err != nil {
			return err
		}
		join, err := acceptanceOf(tx, id, p.UserID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := transition(tx, id, models.AssignmentInProgress, models.AssignmentSubmitted, map[string]interface{}{
			"submitted_at": now,
			"updated_at":   now,
		}); err != nil {
			return err
		}

		if err := tx.Model(join).Updates(map[string]interface{}{
			"submitted_files":  datatypes.JSON(encoded),
			"submitted_at":     now,
			"submission_notes": strings.TrimSpace(notes),
		}).Error; err != nil {
			return err
		}

		return s.notifier.Write(tx, &ob, models.Notification{
			UserID:  a.StudentID,
			Title:   "Work Submitted",
			Message: "Freelancer has submitted work for: " + a.Title,
			Type:    models.NotifAssignment,
			Link:    "/dashboard/student/assignments/" + a.ID.String(),
		})
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to submit work")
	}

	s.notifier.Flush(ctx, &ob)
	return s.load(ctx, id)
}

// ReviewSubmission completes the assignment or sends it back for revision.
func (s *Service) ReviewSubmission(ctx context.Context, p auth.Principal, id uuid.UUID, approved bool, feedback string) (*models.Assignment, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}
	feedback = strings.TrimSpace(feedback)
	if !approved && feedback == "" {
		return nil, apperr.Validation("feedback", "feedback is required when requesting a revision")
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.find(tx, id)
		if err != nil {
			return err
		}
		if a.StudentID != p.UserID {
			return apperr.Forbidden("not your assignment")
		}

		now := s.now()
		n := models.Notification{
			Type: models.NotifAssignment,
			Link: "/dashboard/freelancer/my-assignments",
		}
		if approved {
			err = transition(tx, id, models.AssignmentSubmitted, models.AssignmentCompleted, map[string]interface{}{
				"completed_at": now,
				"updated_at":   now,
			})
			n.Title = "Work Approved"
			n.Message = fmt.Sprintf("Your work on %q has been approved!", a.Title)
		} else {
			err = transition(tx, id, models.AssignmentSubmitted, models.AssignmentInProgress, map[string]interface{}{
				"updated_at": now,
			})
			n.Title = "Revision Requested"
			n.Message = fmt.Sprintf("Revision requested for %q: %s", a.Title, feedback)
		}
		if err != nil {
			return err
		}

		if a.AcceptedBy == nil {
			return nil
		}
		n.UserID = *a.AcceptedBy
		return s.notifier.Write(tx, &ob, n)
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to review submission")
	}

	s.notifier.Flush(ctx, &ob)
	return s.load(ctx, id)
}

func (s *Service) MarkAsPaid(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Assignment, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.MarkPaidTx(tx, id)
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to mark assignment as paid")
	}
	return s.load(ctx, id)
}

// MarkPaidTx moves a completed assignment to paid inside the caller's
// transaction. An assignment that is already paid is left as is.
func (s *Service) MarkPaidTx(tx *gorm.DB, id uuid.UUID) error {
	a, err := s.find(tx, id)
	if err != nil {
		return err
	}
	if a.Status == models.AssignmentPaid {
		return nil
	}
	return transition(tx, id, models.AssignmentCompleted, models.AssignmentPaid, map[string]interface{}{
		"updated_at": s.now(),
	})
}

// transition applies from -> to only if the row is still in from.
func transition(tx *gorm.DB, id uuid.UUID, from, to models.AssignmentStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var current models.Assignment
	if err := tx.Select("status").First(&current, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("assignment not found")
		}
		return err
	}
	return apperr.InvalidState(fmt.Sprintf("assignment is %s, expected %s", current.Status, from))
}

func (s *Service) find(tx *gorm.DB, id uuid.UUID) (*models.Assignment, error) {
	var a models.Assignment
	err := tx.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("assignment not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load assignment", err)
	}
	return &a, nil
}

func acceptanceOf(tx *gorm.DB, assignmentID, freelancerID uuid.UUID) (*models.AssignmentFreelancer, error) {
	var join models.AssignmentFreelancer
	err := tx.Where("assignment_id = ? AND freelancer_id = ?", assignmentID, freelancerID).First(&join).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Forbidden("you have not accepted this assignment")
	}
	if err != nil {
		return nil, err
	}
	return &join, nil
}

func createFiles(tx *gorm.DB, assignmentID, uploader uuid.UUID, files []models.FileRef) error {
	if len(files) == 0 {
		return nil
	}
	rows := make([]models.AssignmentFile, 0, len(files))
	for _, f := range files {
		rows = append(rows, models.AssignmentFile{
			AssignmentID: assignmentID,
			FileName:     f.FileName,
			FileURL:      f.FileURL,
			FileSize:     f.FileSize,
			FileType:     f.FileType,
			UploadedBy:   uploader,
		})
	}
	return tx.Create(&rows).Error
}
