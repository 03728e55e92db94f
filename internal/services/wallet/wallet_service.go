package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

// WalletService keeps User.RewardBalance and its ledger in step.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// Credit adds amount to the user's reward balance and records a ledger row.
// Soft-deleted users are still credited. It must run inside the caller's
// transaction.
func (s *WalletService) Credit(tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, referenceID uuid.UUID, description string) error {
	if !amount.IsPositive() {
		return errors.New("amount to credit must be greater than zero")
	}

	result := tx.Unscoped().Model(&models.User{}).
		Where("id = ?", userID).
		Update("reward_balance", gorm.Expr("reward_balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found for id %s", userID)
	}

	ledger := models.WalletTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxCredit,
		Description: description,
		ReferenceID: &referenceID,
	}
	return tx.Create(&ledger).Error
}

func (s *WalletService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.WalletTransaction
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *WalletService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Select("reward_balance").First(&u, "id = ?", userID).Error; err != nil {
		return decimal.Zero, err
	}
	return u.RewardBalance, nil
}
