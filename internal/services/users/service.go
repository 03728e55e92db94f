package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/db"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/referral"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

const referralCodeLen = 8

type Service struct {
	DB        *gorm.DB
	notifier  *notification.Service
	referrals *referral.Service
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, notifier *notification.Service, referrals *referral.Service, logger zerolog.Logger) *Service {
	return &Service{DB: db, notifier: notifier, referrals: referrals, logger: logger, now: time.Now}
}

type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Role         models.Role
	ReferralCode string
}

// Register creates a student or freelancer account. Students are approved
// straight away, freelancers wait for an admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	password := strings.TrimSpace(in.Password)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	errs := apperr.FieldErrors{}
	if email == "" {
		errs.Add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "invalid email format")
	}
	if password == "" {
		errs.Add("password", "password is required")
	} else if len(password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if first == "" {
		errs.Add("first_name", "first name is required")
	} else if utf8.RuneCountInString(first) > 100 {
		errs.Add("first_name", "first name must be at most 100 characters")
	}
	if utf8.RuneCountInString(last) > 100 {
		errs.Add("last_name", "last name must be at most 100 characters")
	}
	if in.Role != models.RoleStudent && in.Role != models.RoleFreelancer {
		errs.Add("role", "role must be student or freelancer")
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
		FirstName:  first,
		LastName:   last,
		Role:       in.Role,
		IsApproved: in.Role != models.RoleFreelancer,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.create(tx, u); err != nil {
			return err
		}
		if u.Role == models.RoleStudent {
			return s.referrals.Link(tx, u, in.ReferralCode)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to register")
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	errs := apperr.FieldErrors{}
	if email == "" {
		errs.Add("email", "email is required")
	}
	if password == "" {
		errs.Add("password", "password is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return &u, nil
}

// GoogleUpsert signs in the account with this email, creating a student
// account on first use.
func (s *Service) GoogleUpsert(ctx context.Context, email, firstName, lastName string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email", "email not provided by Google")
	}

	gdb := s.DB.WithContext(ctx)
	var u models.User
	err := gdb.Where("email = ?", email).First(&u).Error
	if err == nil {
		if u.FirstName == "" && firstName != "" {
			gdb.Model(&u).Updates(map[string]interface{}{"first_name": firstName, "last_name": lastName})
		}
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("failed to load user", err)
	}

	// never used to sign in; the column is required
	hashed, err := utils.HashPassword(randomSecret(24))
	if err != nil {
		return nil, apperr.Internal("failed to process password", err)
	}
	u = models.User{
		Email:      email,
		Password:   hashed,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Role:       models.RoleStudent,
		IsApproved: true,
	}
	if err := gdb.Transaction(func(tx *gorm.DB) error { return s.create(tx, &u) }); err != nil {
		return nil, apperr.Typed(err, "failed to create account")
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("user created via google")
	return &u, nil
}

func (s *Service) Me(ctx context.Context, p auth.Principal) (*models.User, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}
	return s.find(s.DB.WithContext(ctx), p.UserID)
}

type ProfileInput struct {
	FirstName *string
	LastName  *string
}

func (s *Service) UpdateProfile(ctx context.Context, p auth.Principal, in ProfileInput) (*models.User, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	errs := apperr.FieldErrors{}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" || utf8.RuneCountInString(v) > 100 {
			errs.Add("first_name", "first name must be between 1 and 100 characters")
		}
		updates["first_name"] = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if utf8.RuneCountInString(v) > 100 {
			errs.Add("last_name", "last name must be at most 100 characters")
		}
		updates["last_name"] = v
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	gdb := s.DB.WithContext(ctx)
	if len(updates) > 0 {
		updates["updated_at"] = s.now()
		if err := gdb.Model(&models.User{}).Where("id = ?", p.UserID).Updates(updates).Error; err != nil {
			return nil, apperr.Internal("failed to update profile", err)
		}
	}
	return s.find(gdb, p.UserID)
}

// create inserts u with a fresh referral code.
func (s *Service) create(tx *gorm.DB, u *models.User) error {
	var taken int64
	if err := tx.Model(&models.User{}).Unscoped().Where("email = ?", u.Email).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return apperr.Validation("email", "email is already registered")
	}

	for i := 0; i < 5; i++ {
		code := utils.RandomCode(referralCodeLen)
		if err := tx.Model(&models.User{}).Unscoped().Where("referral_code = ?", code).Count(&taken).Error; err != nil {
			return err
		}
		if taken == 0 {
			u.ReferralCode = &code
			break
		}
	}

	if err := tx.Create(u).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Validation("email", "email is already registered")
		}
		return err
	}
	return nil
}

func (s *Service) find(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := tx.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	return &u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func randomSecret(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
