package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

func useDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.OpenDB(t)
	prev := connect
	connect = func() (*gorm.DB, zerolog.Logger, error) { return db, zerolog.Nop(), nil }
	t.Cleanup(func() { connect = prev })
	return db
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	useDB(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)
}

func TestCreateAdmin(t *testing.T) {
	db := useDB(t)

	out, err := run(t, "create-admin", "--email", "Root@Example.com", "--password", "secret1", "--super")
	require.NoError(t, err)
	assert.Contains(t, out, "created super_admin root@example.com")

	var u models.User
	require.NoError(t, db.First(&u, "email = ?", "root@example.com").Error)
	assert.Equal(t, models.RoleSuperAdmin, u.Role)
	assert.True(t, u.IsApproved)

	_, err = run(t, "create-admin", "--email", "root@example.com", "--password", "secret1")
	assert.Error(t, err)

	_, err = run(t, "create-admin", "--email", "short@example.com")
	assert.Error(t, err)
}

func TestApproveFreelancer(t *testing.T) {
	db := useDB(t)
	_, err := run(t, "create-admin", "--email", "ops@example.com", "--password", "secret1")
	require.NoError(t, err)
	freelancer := testutil.CreateUser(t, db, models.RoleFreelancer, false)

	_, err = run(t, "approve-freelancer", freelancer.Email)
	assert.Error(t, err, "--as is required")

	out, err := run(t, "approve-freelancer", freelancer.Email, "--as", "ops@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "approved "+freelancer.Email)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", freelancer.ID).Error)
	assert.True(t, got.IsApproved)
	assert.True(t, testutil.HasNotification(testutil.NotificationsFor(t, db, freelancer), "Account Approved"))

	_, err = run(t, "approve-freelancer", "nobody@example.com", "--as", "ops@example.com")
	assert.Error(t, err)
}
