package referral

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/wallet"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

func newService(t *testing.T) (*Service, *gorm.DB, *testutil.RecordingPublisher) {
	t.Helper()
	db := testutil.OpenDB(t)
	pub := &testutil.RecordingPublisher{}
	notifier := notification.NewService(db, pub, logger.Nop())
	return NewService(db, notifier, wallet.NewWalletService(db), logger.Nop()), db, pub
}

func TestCode_IssuedOnceAndStable(t *testing.T) {
	svc, db, _ := newService(t)
	u := testutil.CreateUser(t, db, models.RoleStudent, true)

	code, err := svc.Code(context.Background(), testutil.PrincipalOf(u))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "REF-"))

	again, err := svc.Code(context.Background(), testutil.PrincipalOf(u))
	require.NoError(t, err)
	assert.Equal(t, code, again)

	f := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	_, err = svc.Code(context.Background(), testutil.PrincipalOf(f))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestLink(t *testing.T) {
	svc, db, _ := newService(t)
	referrer := testutil.CreateUser(t, db, models.RoleStudent, true)
	code, err := svc.Code(context.Background(), testutil.PrincipalOf(referrer))
	require.NoError(t, err)

	t.Run("known code lowercased", func(t *testing.T) {
		u := testutil.CreateUser(t, db, models.RoleStudent, true)
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.Link(tx, u, " "+strings.ToLower(code)+" ")
		}))
		require.NotNil(t, u.ReferredBy)
		assert.Equal(t, referrer.ID, *u.ReferredBy)

		var ref models.Referral
		require.NoError(t, db.Where("referred_id = ?", u.ID).First(&ref).Error)
		assert.Equal(t, referrer.ID, ref.ReferrerID)
		assert.False(t, ref.IsVerified)
	})

	t.Run("unknown code ignored", func(t *testing.T) {
		u := testutil.CreateUser(t, db, models.RoleStudent, true)
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.Link(tx, u, "REF-NOPE0000")
		}))
		assert.Nil(t, u.ReferredBy)

		var n int64
		db.Model(&models.Referral{}).Where("referred_id = ?", u.ID).Count(&n)
		assert.Zero(t, n)
	})
}

func TestRewardTx(t *testing.T) {
	svc, db, pub := newService(t)
	referrer := testutil.CreateUser(t, db, models.RoleStudent, true)
	admin := testutil.CreateUser(t, db, models.RoleAdmin, true)
	student := testutil.CreateUser(t, db, models.RoleStudent, true)
	code, err := svc.Code(context.Background(), testutil.PrincipalOf(referrer))
	require.NoError(t, err)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error { return svc.Link(tx, student, code) }))

	reward := func() *models.Referral {
		var ob notification.Outbox
		var ref *models.Referral
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			ref, err = svc.RewardTx(tx, &ob, student.ID, admin.ID, uuid.New())
			return err
		}))
		svc.notifier.Flush(context.Background(), &ob)
		return ref
	}

	first := reward()
	require.NotNil(t, first)
	assert.True(t, first.IsVerified)
	assert.Nil(t, reward())

	var r models.User
	require.NoError(t, db.First(&r, "id = ?", referrer.ID).Error)
	assert.True(t, decimal.NewFromInt(15).Equal(r.RewardBalance))

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "You earned $15 for referring a student!", published[0].Message)

	sum, err := svc.List(context.Background(), testutil.PrincipalOf(referrer))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.VerifiedCount)
	assert.Equal(t, 0, sum.PendingCount)
	assert.True(t, decimal.NewFromInt(15).Equal(sum.TotalEarned))
	require.Len(t, sum.Referrals, 1)
	require.NotNil(t, sum.Referrals[0].Referred)
	assert.Equal(t, student.ID, sum.Referrals[0].Referred.ID)
}

func TestRewardTx_NoReferral(t *testing.T) {
	svc, db, _ := newService(t)
	student := testutil.CreateUser(t, db, models.RoleStudent, true)
	var ref *models.Referral
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		ref, err = svc.RewardTx(tx, nil, student.ID, uuid.New(), uuid.New())
		return err
	}))
	assert.Nil(t, ref)
}
