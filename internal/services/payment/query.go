package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

type Stats struct {
	Pending        int64           `json:"pending"`
	Verified       int64           `json:"verified"`
	Rejected       int64           `json:"rejected"`
	VerifiedAmount decimal.Decimal `json:"verified_amount"`
}

func userSummary(tx *gorm.DB) *gorm.DB {
	return tx.Unscoped().Select("id", "first_name", "last_name", "email", "role")
}

func (s *Service) preloaded(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Assignment").
		Preload("Student", userSummary).
		Preload("Freelancer", userSummary).
		Preload("Screenshots")
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var pay models.Payment
	err := s.preloaded(s.DB.WithContext(ctx)).First(&pay, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load payment", err)
	}
	return &pay, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Payment, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}
	pay, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && pay.StudentID != p.UserID && pay.FreelancerID != p.UserID {
		return nil, apperr.NotFound("payment not found")
	}
	return pay, nil
}

// List returns the caller's payments: students see what they paid,
// freelancers what they received, admins everything.
func (s *Service) List(ctx context.Context, p auth.Principal, status models.PaymentStatus) ([]models.Payment, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	q := s.preloaded(s.DB.WithContext(ctx))
	switch p.Role {
	case models.RoleStudent:
		q = q.Where("student_id = ?", p.UserID)
	case models.RoleFreelancer:
		q = q.Where("freelancer_id = ?", p.UserID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []models.Payment
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to list payments", err)
	}
	return out, nil
}

func (s *Service) ListPending(ctx context.Context, p auth.Principal) ([]models.Payment, error) {
	return s.ListAll(ctx, p, models.PaymentPending)
}

func (s *Service) ListAll(ctx context.Context, p auth.Principal, status models.PaymentStatus) ([]models.Payment, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}
	return s.List(ctx, p, status)
}

func (s *Service) Stats(ctx context.Context, p auth.Principal) (*Stats, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}
	gdb := s.DB.WithContext(ctx)

	var rows []struct {
		Status models.PaymentStatus
		N      int64
	}
	if err := gdb.Model(&models.Payment{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to compute payment stats", err)
	}

	st := &Stats{}
	for _, r := range rows {
		switch r.Status {
		case models.PaymentPending:
			st.Pending = r.N
		case models.PaymentVerified:
			st.Verified = r.N
		case models.PaymentRejected:
			st.Rejected = r.N
		}
	}

	if err := gdb.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", models.PaymentVerified).
		Row().Scan(&st.VerifiedAmount); err != nil {
		return nil, apperr.Internal("failed to sum payments", err)
	}
	return st, nil
}
