package messaging

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

func newService(t *testing.T) (*Service, *gorm.DB, *testutil.RecordingPublisher) {
	t.Helper()
	db := testutil.OpenDB(t)
	pub := &testutil.RecordingPublisher{}
	return NewService(db, notification.NewService(db, pub, logger.Nop()), logger.Nop()), db, pub
}

func send(t *testing.T, svc *Service, from, to *models.User, content string) *models.Message {
	t.Helper()
	m, err := svc.Send(context.Background(), testutil.PrincipalOf(from), SendInput{ReceiverID: to.ID, Content: content})
	require.NoError(t, err)
	return m
}

func TestSend(t *testing.T) {
	svc, db, pub := newService(t)
	ctx := context.Background()
	student := testutil.CreateUser(t, db, models.RoleStudent, true)
	freelancer := testutil.CreateUser(t, db, models.RoleFreelancer, true)

	m, err := svc.Send(ctx, testutil.PrincipalOf(student), SendInput{
		ReceiverID: freelancer.ID,
		Files:      []models.FileRef{{FileName: "demo.mp4", FileURL: "https://f/demo.mp4", FileType: "video/mp4"}},
	})
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.True(t, m.Files[0].IsVideo)

	items := testutil.NotificationsFor(t, db, freelancer)
	require.Len(t, items, 1)
	assert.Equal(t, "New Message", items[0].Title)
	assert.Equal(t, "student sent you a message", items[0].Message)
	assert.Equal(t, "/dashboard/freelancer/messages", items[0].Link)
	assert.Len(t, pub.Published(), 1)
}

func TestSend_Validation(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, models.RoleStudent, true)
	b := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	pa := testutil.PrincipalOf(a)

	cases := []struct {
		name string
		in   SendInput
		kind apperr.Kind
	}{
		{"empty", SendInput{ReceiverID: b.ID, Content: "   "}, apperr.KindValidation},
		{"too long", SendInput{ReceiverID: b.ID, Content: strings.Repeat("x", 5001)}, apperr.KindValidation},
		{"self", SendInput{ReceiverID: a.ID, Content: "hi"}, apperr.KindValidation},
		{"unknown receiver", SendInput{ReceiverID: uuid.New(), Content: "hi"}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(ctx, pa, tc.in)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}

	_, err := svc.Send(ctx, pa, SendInput{ReceiverID: b.ID, Content: strings.Repeat("x", 5000)})
	assert.NoError(t, err)
}

func TestConversationMarksIncomingRead(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, models.RoleStudent, true)
	b := testutil.CreateUser(t, db, models.RoleFreelancer, true)

	send(t, svc, a, b, "first")
	send(t, svc, b, a, "second")
	send(t, svc, a, b, "third")

	n, err := svc.UnreadCount(ctx, testutil.PrincipalOf(b))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	thread, err := svc.Conversation(ctx, testutil.PrincipalOf(b), a.ID, nil)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "first", thread[0].Content)
	assert.Equal(t, "third", thread[2].Content)

	n, err = svc.UnreadCount(ctx, testutil.PrincipalOf(b))
	require.NoError(t, err)
	assert.Zero(t, n)

	// b's own message to a stays unread until a fetches
	n, err = svc.UnreadCount(ctx, testutil.PrincipalOf(a))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestConversationsGroupedByOtherUser(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	me := testutil.CreateUser(t, db, models.RoleStudent, true)
	f1 := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	f2 := testutil.CreateUser(t, db, models.RoleFreelancer, true)

	send(t, svc, f1, me, "hello from f1")
	send(t, svc, me, f1, "reply to f1")
	send(t, svc, f2, me, "hello from f2")
	send(t, svc, f2, me, "again from f2")

	convs, err := svc.Conversations(ctx, testutil.PrincipalOf(me))
	require.NoError(t, err)
	require.Len(t, convs, 2)

	byUser := map[uuid.UUID]ConversationSummary{}
	for _, c := range convs {
		require.NotNil(t, c.OtherUser)
		byUser[c.OtherUser.ID] = c
	}
	assert.Equal(t, int64(1), byUser[f1.ID].UnreadCount)
	assert.Equal(t, "reply to f1", byUser[f1.ID].LastMessage.Content)
	assert.Equal(t, int64(2), byUser[f2.ID].UnreadCount)
	assert.Equal(t, "again from f2", byUser[f2.ID].LastMessage.Content)

	changed, err := svc.MarkAsRead(ctx, testutil.PrincipalOf(me), f2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
}
