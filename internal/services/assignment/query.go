package assignment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

type ListFilter struct {
	Status   models.AssignmentStatus
	Category string
	Search   string
	SortBy   string // newest, price, deadline
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Mine     bool
}

type Stats struct {
	Total         int64            `json:"total"`
	Draft         int64            `json:"draft,omitempty"`
	Posted        int64            `json:"posted,omitempty"`
	InProgress    int64            `json:"in_progress"`
	Submitted     int64            `json:"submitted"`
	Completed     int64            `json:"completed"`
	TotalEarnings *decimal.Decimal `json:"total_earnings,omitempty"`
}

type AdminStats struct {
	TotalAssignments   int64                             `json:"total_assignments"`
	TotalStudents      int64                             `json:"total_students"`
	TotalFreelancers   int64                             `json:"total_freelancers"`
	PendingReview      int64                             `json:"pending_review"`
	CompletedThisMonth int64                             `json:"completed_this_month"`
	StatusBreakdown    map[models.AssignmentStatus]int64 `json:"status_breakdown"`
}

func (s *Service) preloaded(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Student", selectUserSummary).
		Preload("Freelancer", selectUserSummary).
		Preload("Files").
		Preload("Acceptance")
}

func selectUserSummary(tx *gorm.DB) *gorm.DB {
	return tx.Unscoped().Select("id", "first_name", "last_name", "email", "role")
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var a models.Assignment
	err := s.preloaded(s.DB.WithContext(ctx)).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("assignment not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load assignment", err)
	}
	return &a, nil
}

// Get returns an assignment the caller is allowed to see.
func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Assignment, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, a) {
		return nil, apperr.NotFound("assignment not found")
	}
	return a, nil
}

func visible(p auth.Principal, a *models.Assignment) bool {
	switch {
	case p.IsAdmin():
		return true
	case p.Role == models.RoleStudent:
		return a.StudentID == p.UserID
	case p.Role == models.RoleFreelancer:
		if a.AcceptedBy != nil && *a.AcceptedBy == p.UserID {
			return true
		}
		return a.Status == models.AssignmentPosted
	}
	return false
}

func (s *Service) List(ctx context.Context, p auth.Principal, f ListFilter) ([]models.Assignment, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	q := s.preloaded(s.DB.WithContext(ctx)).Model(&models.Assignment{})
	switch p.Role {
	case models.RoleStudent:
		q = q.Where("student_id = ?", p.UserID)
	case models.RoleFreelancer:
		if f.Mine {
			q = q.Where("accepted_by = ?", p.UserID)
		} else {
			q = q.Where("status = ?", models.AssignmentPosted)
		}
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	switch f.SortBy {
	case "price":
		q = q.Order("price DESC")
	case "deadline":
		q = q.Order("deadline ASC")
	default:
		q = q.Order("created_at DESC")
	}

	var out []models.Assignment
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to list assignments", err)
	}
	return out, nil
}

// MyWork lists the assignments the calling freelancer has accepted.
func (s *Service) MyWork(ctx context.Context, p auth.Principal) ([]models.Assignment, error) {
	if err := p.Require(auth.Freelancers...); err != nil {
		return nil, err
	}
	return s.List(ctx, p, ListFilter{Mine: true})
}

type statusCount struct {
	Status models.AssignmentStatus
	N      int64
}

func countByStatus(q *gorm.DB) (map[models.AssignmentStatus]int64, error) {
	var rows []statusCount
	if err := q.Model(&models.Assignment{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.AssignmentStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, p auth.Principal) (*Stats, error) {
	if err := p.Require(models.RoleStudent, models.RoleFreelancer); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx)
	if p.Role == models.RoleStudent {
		q = q.Where("student_id = ?", p.UserID)
	} else {
		q = q.Where("accepted_by = ?", p.UserID)
	}

	counts, err := countByStatus(q)
	if err != nil {
		return nil, apperr.Internal("failed to compute stats", err)
	}

	st := &Stats{
		InProgress: counts[models.AssignmentAssigned] + counts[models.AssignmentInProgress],
		Submitted:  counts[models.AssignmentSubmitted],
		Completed:  counts[models.AssignmentCompleted] + counts[models.AssignmentPaid],
	}
	for _, n := range counts {
		st.Total += n
	}

	if p.Role == models.RoleStudent {
		st.Draft = counts[models.AssignmentDraft]
		st.Posted = counts[models.AssignmentPosted]
		return st, nil
	}

	var earned decimal.Decimal
	err = s.DB.WithContext(ctx).Model(&models.Assignment{}).
		Select("COALESCE(SUM(price), 0)").
		Where("accepted_by = ? AND status = ?", p.UserID, models.AssignmentPaid).
		Row().Scan(&earned)
	if err != nil {
		return nil, apperr.Internal("failed to compute earnings", err)
	}
	st.TotalEarnings = &earned
	return st, nil
}

func (s *Service) AdminStats(ctx context.Context, p auth.Principal) (*AdminStats, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}
	gdb := s.DB.WithContext(ctx)

	counts, err := countByStatus(gdb)
	if err != nil {
		return nil, apperr.Internal("failed to compute stats", err)
	}

	st := &AdminStats{
		PendingReview:   counts[models.AssignmentSubmitted],
		StatusBreakdown: counts,
	}
	for _, n := range counts {
		st.TotalAssignments += n
	}

	if err := gdb.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&st.TotalStudents).Error; err != nil {
		return nil, apperr.Internal("failed to count students", err)
	}
	if err := gdb.Model(&models.User{}).Where("role = ?", models.RoleFreelancer).Count(&st.TotalFreelancers).Error; err != nil {
		return nil, apperr.Internal("failed to count freelancers", err)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if err := gdb.Model(&models.Assignment{}).
		Where("completed_at >= ?", monthStart).
		Count(&st.CompletedThisMonth).Error; err != nil {
		return nil, apperr.Internal("failed to count completions", err)
	}

	return st, nil
}
