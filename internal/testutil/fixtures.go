package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

// RecordingPublisher keeps every published notification in memory.
type RecordingPublisher struct {
	mu    sync.Mutex
	items []models.Notification
}

func (p *RecordingPublisher) Publish(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, n)
	return nil
}

func (p *RecordingPublisher) Published() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Notification, len(p.items))
	copy(out, p.items)
	return out
}

// CreateUser inserts a user with the given role. Freelancers are approved
// unless approved is false.
func CreateUser(t testing.TB, db *gorm.DB, role models.Role, approved bool) *models.User {
	t.Helper()
	u := &models.User{
		Email:      string(role) + "-" + RandomSuffix() + "@example.com",
		Password:   "x",
		FirstName:  string(role),
		Role:       role,
		IsApproved: approved,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func PrincipalOf(u *models.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Role: u.Role, IsApproved: u.IsApproved}
}

// NotificationsFor returns the stored notifications of a user, oldest first.
func NotificationsFor(t testing.TB, db *gorm.DB, u *models.User) []models.Notification {
	t.Helper()
	var items []models.Notification
	require.NoError(t, db.Where("user_id = ?", u.ID).Order("created_at ASC").Find(&items).Error)
	return items
}

func HasNotification(items []models.Notification, title string) bool {
	for _, n := range items {
		if n.Title == title {
			return true
		}
	}
	return false
}

func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
