package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
)

type ListFilter struct {
	Role     models.Role
	Approved *bool
	Search   string
}

type Stats struct {
	Total              int64                 `json:"total"`
	ByRole             map[models.Role]int64 `json:"by_role"`
	PendingFreelancers int64                 `json:"pending_freelancers"`
}

// ApproveFreelancer grants a pending freelancer full access.
func (s *Service) ApproveFreelancer(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.User, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.find(tx, id)
		if err != nil {
			return err
		}
		if u.Role != models.RoleFreelancer {
			return apperr.InvalidState("only freelancers need approval")
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND is_approved = ?", id, false).
			Updates(map[string]interface{}{"is_approved": true, "updated_at": s.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return s.notifier.Write(tx, &ob, models.Notification{
			UserID:  id,
			Title:   "Account Approved",
			Message: "Your account has been approved! You now have full access.",
			Type:    models.NotifAccount,
		})
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to approve freelancer")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Info().Str("user_id", id.String()).Str("admin_id", p.UserID.String()).Msg("freelancer approved")
	return s.find(s.DB.WithContext(ctx), id)
}

// ChangeRole moves another account to role. Freelancers restart unapproved.
func (s *Service) ChangeRole(ctx context.Context, p auth.Principal, id uuid.UUID, role models.Role) (*models.User, error) {
	if err := p.Require(auth.SuperAdmins...); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation("role", "unknown role")
	}
	if id == p.UserID {
		return nil, apperr.Forbidden("you cannot change your own role")
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.find(tx, id)
		if err != nil {
			return err
		}
		if u.Role == role {
			return nil
		}
		err = tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"role":        role,
			"is_approved": role != models.RoleFreelancer,
			"updated_at":  s.now(),
		}).Error
		if err != nil {
			return err
		}
		return s.notifier.Write(tx, &ob, models.Notification{
			UserID:  id,
			Title:   "Role Changed",
			Message: "Your account role has been changed to " + string(role),
			Type:    models.NotifAccount,
		})
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to change role")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Info().Str("user_id", id.String()).Str("role", string(role)).Msg("role changed")
	return s.find(s.DB.WithContext(ctx), id)
}

// Delete soft-deletes another account.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := p.Require(auth.SuperAdmins...); err != nil {
		return err
	}
	if id == p.UserID {
		return apperr.Forbidden("you cannot delete your own account")
	}

	res := s.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal("failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	s.logger.Info().Str("user_id", id.String()).Str("admin_id", p.UserID.String()).Msg("user deleted")
	return nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, f ListFilter) ([]models.User, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Approved != nil {
		q = q.Where("is_approved = ?", *f.Approved)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	var out []models.User
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, p auth.Principal) (*Stats, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}

	var rows []struct {
		Role  models.Role
		Count int64
	}
	gdb := s.DB.WithContext(ctx)
	if err := gdb.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to count users", err)
	}

	st := &Stats{ByRole: map[models.Role]int64{}}
	for _, r := range rows {
		st.ByRole[r.Role] = r.Count
		st.Total += r.Count
	}
	if err := gdb.Model(&models.User{}).
		Where("role = ? AND is_approved = ?", models.RoleFreelancer, false).
		Count(&st.PendingFreelancers).Error; err != nil {
		return nil, apperr.Internal("failed to count users", err)
	}
	return st, nil
}
