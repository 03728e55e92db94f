package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

// Publisher is the fire-and-forget sink notified after commit.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// Outbox collects the notifications written inside one transaction so they
// can be published once it commits.
type Outbox struct {
	items []models.Notification
}

func (o *Outbox) Items() []models.Notification {
	if o == nil {
		return nil
	}
	return o.items
}

type Service struct {
	DB        *gorm.DB
	publisher Publisher
	logger    zerolog.Logger
}

func NewService(db *gorm.DB, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{DB: db, publisher: publisher, logger: logger}
}

// Write stores n using tx and queues it on ob.
func (s *Service) Write(tx *gorm.DB, ob *Outbox, n models.Notification) error {
	if err := tx.Create(&n).Error; err != nil {
		return err
	}
	if ob != nil {
		ob.items = append(ob.items, n)
	}
	return nil
}

// Flush publishes every queued notification; failures are logged only.
func (s *Service) Flush(ctx context.Context, ob *Outbox) {
	if s.publisher == nil || ob == nil {
		return
	}
	for _, n := range ob.items {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		if err := s.publisher.Publish(pctx, n); err != nil {
			s.logger.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("notification publish failed")
		}
		cancel()
	}
	ob.items = nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, unreadOnly bool, limit int) ([]models.Notification, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := s.DB.WithContext(ctx).Where("user_id = ?", p.UserID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var items []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, apperr.Internal("failed to list notifications", err)
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, p auth.Principal) (int64, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return 0, err
	}
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", p.UserID, false).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Internal("failed to count notifications", err)
	}
	return n, nil
}

func (s *Service) MarkAsRead(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := p.Require(auth.Everyone...); err != nil {
		return err
	}

	var n models.Notification
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, p.UserID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("notification not found")
	}
	if err != nil {
		return apperr.Internal("failed to load notification", err)
	}

	if err := s.DB.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return apperr.Internal("failed to update notification", err)
	}
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, p auth.Principal) (int64, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return 0, err
	}
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", p.UserID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Internal("failed to update notifications", res.Error)
	}
	return res.RowsAffected, nil
}
