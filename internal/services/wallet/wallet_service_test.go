package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

func credit(t *testing.T, s *WalletService, userID uuid.UUID, amount int64) error {
	t.Helper()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Credit(tx, userID, decimal.NewFromInt(amount), uuid.New(), "Referral reward")
	})
}

func TestCreditHistoryBalance(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewWalletService(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, models.RoleStudent, true)

	require.NoError(t, credit(t, s, u.ID, 15))
	require.NoError(t, credit(t, s, u.ID, 10))

	balance, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(balance), balance.String())

	history, err := s.History(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, models.WalletTrxCredit, h.Type)
		assert.NotNil(t, h.ReferenceID)
	}

	history, err = s.History(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCredit_Rejects(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewWalletService(db)
	u := testutil.CreateUser(t, db, models.RoleStudent, true)

	assert.Error(t, credit(t, s, u.ID, 0))
	assert.Error(t, credit(t, s, uuid.New(), 15))

	var ledger int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&ledger).Error)
	assert.Zero(t, ledger)

	_, err := s.Balance(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestCredit_SoftDeletedUser(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewWalletService(db)
	u := testutil.CreateUser(t, db, models.RoleStudent, true)
	require.NoError(t, db.Delete(&models.User{}, "id = ?", u.ID).Error)

	require.NoError(t, credit(t, s, u.ID, 15))

	var got models.User
	require.NoError(t, db.Unscoped().First(&got, "id = ?", u.ID).Error)
	assert.True(t, decimal.NewFromInt(15).Equal(got.RewardBalance))
}
