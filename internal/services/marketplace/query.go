package marketplace

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

type ListFilter struct {
	Category string
	Search   string
	SortBy   string // newest, price_asc, price_desc
}

type Stats struct {
	TotalProjects  int64           `json:"total_projects"`
	ActiveProjects int64           `json:"active_projects"`
	TotalSales     int64           `json:"total_sales"`
	Revenue        decimal.Decimal `json:"revenue"`
}

func freelancerSummary(tx *gorm.DB) *gorm.DB {
	return tx.Unscoped().Select("id", "first_name", "last_name", "email", "role")
}

func (s *Service) load(ctx context.Context, id uuid.UUID, unscoped bool) (*models.Project, error) {
	q := s.DB.WithContext(ctx).Preload("Freelancer", freelancerSummary).Preload("Files")
	if unscoped {
		q = q.Unscoped()
	}
	var project models.Project
	err := q.First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load project", err)
	}
	return &project, nil
}

// Get returns an active project, or an inactive one to its owner and admins.
func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Project, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !project.IsActive && project.FreelancerID != p.UserID && !p.IsAdmin() {
		return nil, apperr.NotFound("project not found")
	}
	return project, nil
}

// List returns the active catalogue.
func (s *Service) List(ctx context.Context, p auth.Principal, f ListFilter) ([]models.Project, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).
		Preload("Freelancer", freelancerSummary).
		Preload("Files").
		Where("is_active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	switch f.SortBy {
	case "price_asc":
		q = q.Order("price ASC")
	case "price_desc":
		q = q.Order("price DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var out []models.Project
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to list projects", err)
	}
	return out, nil
}

// Mine lists the caller's own projects, active or not.
func (s *Service) Mine(ctx context.Context, p auth.Principal) ([]models.Project, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}
	var out []models.Project
	err := s.DB.WithContext(ctx).
		Preload("Files").
		Where("freelancer_id = ?", p.UserID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal("failed to list projects", err)
	}
	return out, nil
}

func (s *Service) MyPurchases(ctx context.Context, p auth.Principal) ([]models.ProjectPurchase, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}
	var out []models.ProjectPurchase
	err := s.DB.WithContext(ctx).
		Preload("Project", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("Project.Files").
		Preload("Project.Freelancer", freelancerSummary).
		Where("student_id = ?", p.UserID).
		Order("purchased_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal("failed to list purchases", err)
	}
	return out, nil
}

// Stats summarises the caller's store as a freelancer, or the whole
// marketplace for admins.
func (s *Service) Stats(ctx context.Context, p auth.Principal) (*Stats, error) {
	if err := p.Require(models.RoleFreelancer, models.RoleAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	base := s.DB.WithContext(ctx)
	projects := base.Model(&models.Project{})
	sales := base.Model(&models.ProjectPurchase{})
	if !p.IsAdmin() {
		projects = projects.Where("freelancer_id = ?", p.UserID)
		sales = sales.Where("project_id IN (?)",
			base.Unscoped().Model(&models.Project{}).Select("id").Where("freelancer_id = ?", p.UserID))
	}

	st := &Stats{Revenue: decimal.Zero}
	if err := projects.Session(&gorm.Session{}).Count(&st.TotalProjects).Error; err != nil {
		return nil, apperr.Internal("failed to count projects", err)
	}
	if err := projects.Session(&gorm.Session{}).Where("is_active = ?", true).Count(&st.ActiveProjects).Error; err != nil {
		return nil, apperr.Internal("failed to count projects", err)
	}
	if err := sales.Session(&gorm.Session{}).Count(&st.TotalSales).Error; err != nil {
		return nil, apperr.Internal("failed to count sales", err)
	}

	if err := sales.Session(&gorm.Session{}).Select("COALESCE(SUM(price), 0)").Row().Scan(&st.Revenue); err != nil {
		return nil, apperr.Internal("failed to sum sales", err)
	}
	return st, nil
}
