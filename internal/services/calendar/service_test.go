package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

func TestCreateAndList(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, logger.Nop())
	u := testutil.CreateUser(t, db, models.RoleStudent, true)
	p := testutil.PrincipalOf(u)
	ctx := context.Background()

	now := time.Now()
	_, err := svc.Create(ctx, p, CreateInput{Title: "Exam", StartDate: now.Add(48 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, p, CreateInput{Title: "Study group", StartDate: now.Add(2 * time.Hour)})
	require.NoError(t, err)

	events, err := svc.List(ctx, p, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Study group", events[0].Title)

	events, err = svc.List(ctx, p, now.Add(24*time.Hour), time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Exam", events[0].Title)
}

func TestCreateValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewService(db, logger.Nop())
	p := testutil.PrincipalOf(testutil.CreateUser(t, db, models.RoleFreelancer, true))

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err := svc.Create(context.Background(), p, CreateInput{Title: " ", StartDate: start, EndDate: &end})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
