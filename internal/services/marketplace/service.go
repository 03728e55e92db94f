package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/db"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
)

type Service struct {
	DB       *gorm.DB
	notifier *notification.Service
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier *notification.Service, logger zerolog.Logger) *Service {
	return &Service{DB: db, notifier: notifier, logger: logger, now: time.Now}
}

type CreateInput struct {
	Title        string
	Description  string
	Category     string
	Tags         []string
	Price        decimal.Decimal
	AssignmentID *uuid.UUID
	Files        []models.FileRef
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Tags        []string
	Price       *decimal.Decimal
	IsActive    *bool
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*models.Project, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}
	if !p.IsApproved {
		return nil, apperr.Forbidden("your account is awaiting approval")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	errs := validateFields(in.Title, in.Description, in.Category, in.Tags, in.Price)
	for field, msgs := range fileErrors(in.Files) {
		for _, m := range msgs {
			errs.Add(field, m)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	tags, _ := json.Marshal(trimTags(in.Tags))
	project := &models.Project{
		FreelancerID: p.UserID,
		AssignmentID: in.AssignmentID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Tags:         datatypes.JSON(tags),
		Price:        in.Price,
		IsActive:     true,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		return createFiles(tx, project.ID, in.Files)
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to create project")
	}

	s.logger.Info().Str("project_id", project.ID.String()).Str("freelancer_id", p.UserID.String()).Msg("project created")
	return s.load(ctx, project.ID, false)
}

func (s *Service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in UpdateInput) (*models.Project, error) {
	project, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	title, desc, category, price := project.Title, project.Description, project.Category, project.Price
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		desc = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		category = *in.Category
	}
	if in.Price != nil {
		price = *in.Price
	}
	if err := validateFields(title, desc, category, in.Tags, price).Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       title,
		"description": desc,
		"category":    category,
		"price":       price,
		"updated_at":  s.now(),
	}
	if in.Tags != nil {
		tags, _ := json.Marshal(trimTags(in.Tags))
		updates["tags"] = datatypes.JSON(tags)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if err := s.DB.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("failed to update project", err)
	}
	return s.load(ctx, id, false)
}

// Delete soft-deletes the project; purchases keep pointing at it.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	project, err := s.owned(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(project).Error; err != nil {
		return apperr.Internal("failed to delete project", err)
	}
	s.logger.Info().Str("project_id", id.String()).Msg("project deleted")
	return nil
}

func (s *Service) AddFiles(ctx context.Context, p auth.Principal, id uuid.UUID, files []models.FileRef) ([]models.ProjectFile, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("files", "at least one file is required")
	}
	if err := fileErrors(files).Err(); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}

	if err := createFiles(s.DB.WithContext(ctx), id, files); err != nil {
		return nil, apperr.Internal("failed to save files", err)
	}
	var out []models.ProjectFile
	if err := s.DB.WithContext(ctx).Where("project_id = ?", id).Order("uploaded_at ASC").Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to load files", err)
	}
	return out, nil
}

// Purchase records a one-time purchase of an active project by a student.
func (s *Service) Purchase(ctx context.Context, p auth.Principal, projectID uuid.UUID) (*models.ProjectPurchase, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}

	var purchase models.ProjectPurchase
	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("project not found")
			}
			return err
		}
		if !project.IsActive {
			return apperr.InvalidState("project is not available for purchase")
		}

		var existing int64
		if err := tx.Model(&models.ProjectPurchase{}).
			Where("project_id = ? AND student_id = ?", project.ID, p.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Duplicate("you have already purchased this project")
		}

		purchase = models.ProjectPurchase{
			ProjectID: project.ID,
			StudentID: p.UserID,
			Price:     project.Price,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Duplicate("you have already purchased this project")
			}
			return err
		}

		var buyer models.User
		if err := tx.Select("id", "first_name").First(&buyer, "id = ?", p.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		name := strings.TrimSpace(buyer.FirstName)
		if name == "" {
			name = "A student"
		}
		return s.notifier.Write(tx, &ob, models.Notification{
			UserID:  project.FreelancerID,
			Title:   "Project Purchased",
			Message: fmt.Sprintf("%s purchased your project: %s", name, project.Title),
			Type:    models.NotifMarketplace,
			Link:    "/dashboard/freelancer/marketplace",
		})
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to purchase project")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Info().Str("project_id", projectID.String()).Str("student_id", p.UserID.String()).Msg("project purchased")
	return &purchase, nil
}

func (s *Service) owned(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Project, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}
	var project models.Project
	err := s.DB.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load project", err)
	}
	if project.FreelancerID != p.UserID {
		return nil, apperr.Forbidden("not your project")
	}
	return &project, nil
}

func validateFields(title, desc, category string, tags []string, price decimal.Decimal) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	if n := utf8.RuneCountInString(title); n < 5 || n > 200 {
		errs.Add("title", "title must be between 5 and 200 characters")
	}
	if n := utf8.RuneCountInString(desc); n < 20 || n > 5000 {
		errs.Add("description", "description must be between 20 and 5000 characters")
	}
	if !models.IsCategory(category) {
		errs.Add("category", "unknown category")
	}
	if len(tags) > 10 {
		errs.Add("tags", "at most 10 tags are allowed")
	}
	if !price.IsPositive() {
		errs.Add("price", "price must be positive")
	}
	return errs
}

func fileErrors(files []models.FileRef) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	for _, f := range files {
		if strings.TrimSpace(f.FileName) == "" || strings.TrimSpace(f.FileURL) == "" {
			errs.Add("files", "file name and url are required")
			break
		}
		if f.FileSize > models.MaxFileSize {
			errs.Add("files", "file size must be less than 25MB")
			break
		}
	}
	return errs
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func createFiles(tx *gorm.DB, projectID uuid.UUID, files []models.FileRef) error {
	if len(files) == 0 {
		return nil
	}
	rows := make([]models.ProjectFile, 0, len(files))
	for _, f := range files {
		rows = append(rows, models.ProjectFile{
			ProjectID: projectID,
			FileName:  f.FileName,
			FileURL:   f.FileURL,
			FileSize:  f.FileSize,
			FileType:  f.FileType,
		})
	}
	return tx.Create(&rows).Error
}
