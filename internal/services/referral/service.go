package referral

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/db"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/wallet"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

type Service struct {
	DB       *gorm.DB
	notifier *notification.Service
	wallet   *wallet.WalletService
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier *notification.Service, w *wallet.WalletService, logger zerolog.Logger) *Service {
	return &Service{DB: db, notifier: notifier, wallet: w, logger: logger, now: time.Now}
}

// Link resolves code to a referrer and records the referral for a user that
// is being created in tx. Unknown codes are ignored.
func (s *Service) Link(tx *gorm.DB, referred *models.User, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}

	var referrer models.User
	err := tx.Select("id").Where("referral_code = ?", code).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Debug().Str("code", code).Msg("unknown referral code ignored")
		return nil
	}
	if err != nil {
		return err
	}
	if referrer.ID == referred.ID {
		return nil
	}

	if err := tx.Model(referred).Update("referred_by", referrer.ID).Error; err != nil {
		return err
	}
	referred.ReferredBy = &referrer.ID

	return tx.Create(&models.Referral{
		ReferrerID: referrer.ID,
		ReferredID: referred.ID,
	}).Error
}

// RewardTx verifies the referred student's open referral, if any, credits the
// referrer and queues their notification. Each referral pays out once.
func (s *Service) RewardTx(tx *gorm.DB, ob *notification.Outbox, studentID, adminID, assignmentID uuid.UUID) (*models.Referral, error) {
	var ref models.Referral
	err := tx.Where("referred_id = ? AND is_verified = ?", studentID, false).
		Order("created_at ASC").
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	reward := models.ReferralReward
	res := tx.Model(&models.Referral{}).
		Where("id = ? AND is_verified = ?", ref.ID, false).
		Updates(map[string]interface{}{
			"is_verified":   true,
			"assignment_id": assignmentID,
			"verified_by":   adminID,
			"verified_at":   now,
			"reward_amount": reward,
			"updated_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	if err := s.wallet.Credit(tx, ref.ReferrerID, reward, ref.ID, "Referral reward"); err != nil {
		return nil, err
	}

	if err := s.notifier.Write(tx, ob, models.Notification{
		UserID:  ref.ReferrerID,
		Title:   "Referral Reward Earned",
		Message: "You earned $" + reward.String() + " for referring a student!",
		Type:    models.NotifReferral,
		Link:    "/dashboard/student/referrals",
	}); err != nil {
		return nil, err
	}

	ref.IsVerified = true
	ref.AssignmentID = &assignmentID
	ref.VerifiedBy = &adminID
	ref.VerifiedAt = &now
	ref.RewardAmount = &reward
	s.logger.Info().Str("referral_id", ref.ID.String()).Str("referrer_id", ref.ReferrerID.String()).Msg("referral rewarded")
	return &ref, nil
}

// Code returns the caller's referral code, issuing one on first use.
func (s *Service) Code(ctx context.Context, p auth.Principal) (string, error) {
	if err := p.Require(auth.Students...); err != nil {
		return "", err
	}

	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("user not found")
		}
		return "", apperr.Internal("failed to load user", err)
	}
	if u.ReferralCode != nil && *u.ReferralCode != "" {
		return *u.ReferralCode, nil
	}

	code := utils.DerivedReferralCode(u.ID)
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referral_code IS NULL", u.ID).
		Update("referral_code", code)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			return "", apperr.Internal("referral code collision", res.Error)
		}
		return "", apperr.Internal("failed to issue referral code", res.Error)
	}
	if res.RowsAffected == 0 {
		// issued concurrently
		if err := s.DB.WithContext(ctx).Select("referral_code").First(&u, "id = ?", u.ID).Error; err != nil {
			return "", apperr.Internal("failed to reload referral code", err)
		}
		if u.ReferralCode != nil {
			return *u.ReferralCode, nil
		}
	}
	return code, nil
}

type Summary struct {
	Referrals     []models.Referral `json:"referrals"`
	TotalEarned   decimal.Decimal   `json:"total_earned"`
	PendingCount  int               `json:"pending_count"`
	VerifiedCount int               `json:"verified_count"`
}

func (s *Service) List(ctx context.Context, p auth.Principal) (*Summary, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}

	var refs []models.Referral
	err := s.DB.WithContext(ctx).
		Preload("Referred", func(tx *gorm.DB) *gorm.DB {
			return tx.Unscoped().Select("id", "first_name", "last_name", "email", "created_at")
		}).
		Where("referrer_id = ?", p.UserID).
		Order("created_at DESC").
		Find(&refs).Error
	if err != nil {
		return nil, apperr.Internal("failed to list referrals", err)
	}

	sum := &Summary{Referrals: refs, TotalEarned: decimal.Zero}
	for _, r := range refs {
		if !r.IsVerified {
			sum.PendingCount++
			continue
		}
		sum.VerifiedCount++
		if r.RewardAmount != nil {
			sum.TotalEarned = sum.TotalEarned.Add(*r.RewardAmount)
		}
	}
	return sum, nil
}
