package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, models.Notification) error {
	f.calls++
	return errors.New("redis down")
}

func write(t *testing.T, svc *Service, ob *Outbox, userID uuid.UUID, title string) {
	t.Helper()
	require.NoError(t, svc.DB.Transaction(func(tx *gorm.DB) error {
		return svc.Write(tx, ob, models.Notification{UserID: userID, Title: title, Message: title, Type: models.NotifAccount})
	}))
}

func TestWriteAndFlush(t *testing.T) {
	db := testutil.OpenDB(t)
	pub := &testutil.RecordingPublisher{}
	svc := NewService(db, pub, logger.Nop())
	u := testutil.CreateUser(t, db, models.RoleStudent, true)

	var ob Outbox
	write(t, svc, &ob, u.ID, "one")
	write(t, svc, &ob, u.ID, "two")
	assert.Len(t, ob.Items(), 2)
	assert.Empty(t, pub.Published())

	svc.Flush(context.Background(), &ob)
	assert.Len(t, pub.Published(), 2)
	assert.Empty(t, ob.Items())
}

func TestWrite_RolledBackIsNeverStored(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, &testutil.RecordingPublisher{}, logger.Nop())
	u := testutil.CreateUser(t, db, models.RoleStudent, true)

	var ob Outbox
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Write(tx, &ob, models.Notification{UserID: u.ID, Title: "x", Message: "x", Type: models.NotifAccount}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Empty(t, testutil.NotificationsFor(t, db, u))
}

func TestFlush_PublishFailureIsSwallowed(t *testing.T) {
	db := testutil.OpenDB(t)
	pub := &failingPublisher{}
	svc := NewService(db, pub, logger.Nop())
	u := testutil.CreateUser(t, db, models.RoleStudent, true)

	var ob Outbox
	write(t, svc, &ob, u.ID, "one")
	svc.Flush(context.Background(), &ob)
	assert.Equal(t, 1, pub.calls)
	assert.Len(t, testutil.NotificationsFor(t, db, u), 1)
}

func TestReadState(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, nil, logger.Nop())
	ctx := context.Background()
	u := testutil.CreateUser(t, db, models.RoleStudent, true)
	other := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	p := testutil.PrincipalOf(u)

	write(t, svc, nil, u.ID, "a")
	write(t, svc, nil, u.ID, "b")
	write(t, svc, nil, u.ID, "c")

	n, err := svc.UnreadCount(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	items, err := svc.List(ctx, p, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	err = svc.MarkAsRead(ctx, testutil.PrincipalOf(other), items[0].ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, svc.MarkAsRead(ctx, p, items[0].ID))
	unread, err := svc.List(ctx, p, true, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	changed, err := svc.MarkAllAsRead(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	n, err = svc.UnreadCount(ctx, p)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.UnreadCount(ctx, auth.Principal{})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
