package users

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

// CreateStaff creates an approved admin or super admin. It is meant for the
// operator CLI and performs no caller check.
func (s *Service) CreateStaff(ctx context.Context, email, password, firstName string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)

	errs := apperr.FieldErrors{}
	if email == "" {
		errs.Add("email", "email is required")
	}
	if len(password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if firstName == "" {
		errs.Add("first_name", "first name is required")
	}
	if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		errs.Add("role", "role must be admin or super_admin")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("failed to process password", err)
	}
	u := &models.User{
		Email:      email,
		Password:   hashed,
		FirstName:  firstName,
		Role:       role,
		IsApproved: true,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.create(tx, u)
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to create staff account")
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("role", string(role)).Msg("staff account created")
	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	return &u, nil
}
