package payment

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/assignment"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/referral"
)

type Service struct {
	DB          *gorm.DB
	assignments *assignment.Service
	referrals   *referral.Service
	notifier    *notification.Service
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(db *gorm.DB, assignments *assignment.Service, referrals *referral.Service, notifier *notification.Service, logger zerolog.Logger) *Service {
	return &Service{
		DB:          db,
		assignments: assignments,
		referrals:   referrals,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

type CreateInput struct {
	AssignmentID uuid.UUID
	// optional; must match the accepting freelancer when set
	FreelancerID *uuid.UUID
	Amount       decimal.Decimal
	UPIID        string
	Screenshots  []string
}

// Create records a claimed manual payment for a completed assignment.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*models.Payment, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}

	in.UPIID = strings.TrimSpace(in.UPIID)
	errs := apperr.FieldErrors{}
	if !in.Amount.IsPositive() {
		errs.Add("amount", "amount must be positive")
	}
	if in.UPIID == "" {
		errs.Add("upi_id", "UPI id is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	pay := &models.Payment{
		AssignmentID: in.AssignmentID,
		StudentID:    p.UserID,
		Amount:       in.Amount,
		UPIID:        in.UPIID,
		Status:       models.PaymentPending,
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Assignment
		if err := tx.First(&a, "id = ?", in.AssignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("assignment not found")
			}
			return err
		}
		if a.StudentID != p.UserID {
			return apperr.Forbidden("not your assignment")
		}

		var pending int64
		if err := tx.Model(&models.Payment{}).
			Where("assignment_id = ? AND status = ?", a.ID, models.PaymentPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return apperr.Duplicate("a pending payment already exists for this assignment")
		}

		if a.Status != models.AssignmentCompleted {
			return apperr.InvalidState(fmt.Sprintf("assignment is %s, payments need a completed assignment", a.Status))
		}
		if a.AcceptedBy == nil {
			return apperr.InvalidState("assignment has no freelancer")
		}
		if in.FreelancerID != nil && *in.FreelancerID != *a.AcceptedBy {
			return apperr.Validation("freelancer_id", "freelancer did not work on this assignment")
		}
		pay.FreelancerID = *a.AcceptedBy

		if err := tx.Create(pay).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Duplicate("a pending payment already exists for this assignment")
			}
			return err
		}

		for _, url := range in.Screenshots {
			if url = strings.TrimSpace(url); url == "" {
				continue
			}
			if err := tx.Create(&models.PaymentScreenshot{PaymentID: pay.ID, FileURL: url}).Error; err != nil {
				return err
			}
		}

		return s.notifier.Write(tx, &ob, models.Notification{
			UserID:  pay.FreelancerID,
			Title:   "Payment Initiated",
			Message: fmt.Sprintf("Payment of $%s has been initiated for %q", pay.Amount.String(), a.Title),
			Type:    models.NotifPayment,
			Link:    "/dashboard/freelancer/my-assignments",
		})
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to create payment")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Info().Str("payment_id", pay.ID.String()).Str("assignment_id", pay.AssignmentID.String()).Msg("payment created")
	return s.load(ctx, pay.ID)
}

func (s *Service) AddScreenshot(ctx context.Context, p auth.Principal, paymentID uuid.UUID, fileURL string) (*models.PaymentScreenshot, error) {
	if err := p.Require(auth.Students...); err != nil {
		return nil, err
	}
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return nil, apperr.Validation("file_url", "file url is required")
	}

	var pay models.Payment
	if err := s.DB.WithContext(ctx).First(&pay, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, apperr.Internal("failed to load payment", err)
	}
	if pay.StudentID != p.UserID {
		return nil, apperr.Forbidden("not your payment")
	}

	shot := &models.PaymentScreenshot{PaymentID: pay.ID, FileURL: fileURL}
	if err := s.DB.WithContext(ctx).Create(shot).Error; err != nil {
		return nil, apperr.Internal("failed to save screenshot", err)
	}
	return shot, nil
}

// Verify records the admin decision on a pending payment. A verification
// marks the assignment paid and settles the student's open referral in the
// same transaction.
func (s *Service) Verify(ctx context.Context, p auth.Principal, paymentID uuid.UUID, decision models.PaymentStatus) (*models.Payment, error) {
	if err := p.Require(auth.Admins...); err != nil {
		return nil, err
	}
	if decision != models.PaymentVerified && decision != models.PaymentRejected {
		return nil, apperr.Validation("status", "status must be verified or rejected")
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.First(&pay, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("payment not found")
			}
			return err
		}

		now := s.now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", pay.ID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":      decision,
				"verified_by": p.UserID,
				"verified_at": now,
				"updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("payment has already been " + string(pay.Status))
		}

		title := "Assignment"
		var a models.Assignment
		if err := tx.Select("id", "title").First(&a, "id = ?", pay.AssignmentID).Error; err == nil && a.Title != "" {
			title = a.Title
		}

		if decision == models.PaymentRejected {
			return s.notifier.Write(tx, &ob, models.Notification{
				UserID:  pay.StudentID,
				Title:   "Payment Rejected",
				Message: fmt.Sprintf("Your payment for %q was rejected. Please try again.", title),
				Type:    models.NotifPayment,
				Link:    "/dashboard/student/assignments/" + pay.AssignmentID.String(),
			})
		}

		if err := s.assignments.MarkPaidTx(tx, pay.AssignmentID); err != nil {
			return err
		}

		if err := s.notifier.Write(tx, &ob, models.Notification{
			UserID:  pay.FreelancerID,
			Title:   "Payment Verified",
			Message: fmt.Sprintf("Payment of $%s for %q has been verified", pay.Amount.String(), title),
			Type:    models.NotifPayment,
			Link:    "/dashboard/freelancer/my-assignments",
		}); err != nil {
			return err
		}
		if err := s.notifier.Write(tx, &ob, models.Notification{
			UserID:  pay.StudentID,
			Title:   "Payment Confirmed",
			Message: fmt.Sprintf("Your payment for %q has been verified", title),
			Type:    models.NotifPayment,
			Link:    "/dashboard/student/assignments/" + pay.AssignmentID.String(),
		}); err != nil {
			return err
		}

		_, err := s.referrals.RewardTx(tx, &ob, pay.StudentID, p.UserID, pay.AssignmentID)
		return err
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to verify payment")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Info().Str("payment_id", paymentID.String()).Str("decision", string(decision)).Str("admin_id", p.UserID.String()).Msg("payment reviewed")
	return s.load(ctx, paymentID)
}
