package marketplace

import (
	"context"
	"sync"
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
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	notifier := notification.NewService(db, &testutil.RecordingPublisher{}, logger.Nop())
	return NewService(db, notifier, logger.Nop()), db
}

func validInput() CreateInput {
	return CreateInput{
		Title:       "Kubernetes lab solutions",
		Description: "Worked solutions for a cloud computing lab on Kubernetes deployments.",
		Category:    "Cloud Computing",
		Tags:        []string{" k8s ", "cloud"},
		Price:       decimal.NewFromInt(30),
		Files:       []models.FileRef{{FileName: "lab.pdf", FileURL: "https://f/lab.pdf", FileSize: 1024, FileType: "application/pdf"}},
	}
}

func TestCreate(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	f := testutil.CreateUser(t, db, models.RoleFreelancer, true)

	project, err := svc.Create(ctx, testutil.PrincipalOf(f), validInput())
	require.NoError(t, err)
	assert.True(t, project.IsActive)
	assert.Len(t, project.Files, 1)
	assert.JSONEq(t, `["k8s","cloud"]`, string(project.Tags))

	pending := testutil.CreateUser(t, db, models.RoleFreelancer, false)
	_, err = svc.Create(ctx, testutil.PrincipalOf(pending), validInput())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	s := testutil.CreateUser(t, db, models.RoleStudent, true)
	_, err = svc.Create(ctx, testutil.PrincipalOf(s), validInput())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	bad := validInput()
	bad.Price = decimal.Zero
	bad.Category = "Cooking"
	_, err = svc.Create(ctx, testutil.PrincipalOf(f), bad)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "price")
	assert.Contains(t, appErr.Fields, "category")
}

func TestOwnerOnlyMutations(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	other := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	project, err := svc.Create(ctx, testutil.PrincipalOf(owner), validInput())
	require.NoError(t, err)

	title := "Someone else's title"
	_, err = svc.Update(ctx, testutil.PrincipalOf(other), project.ID, UpdateInput{Title: &title})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Delete(ctx, testutil.PrincipalOf(other), project.ID)))
	_, err = svc.AddFiles(ctx, testutil.PrincipalOf(other), project.ID, []models.FileRef{{FileName: "x", FileURL: "https://f/x"}})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	price := decimal.NewFromInt(45)
	updated, err := svc.Update(ctx, testutil.PrincipalOf(owner), project.ID, UpdateInput{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, project.Title, updated.Title)

	files, err := svc.AddFiles(ctx, testutil.PrincipalOf(owner), project.ID, []models.FileRef{{FileName: "extra.zip", FileURL: "https://f/extra.zip"}})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	require.NoError(t, svc.Delete(ctx, testutil.PrincipalOf(owner), project.ID))
	_, err = svc.Get(ctx, testutil.PrincipalOf(owner), project.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListShowsActiveOnly(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	student := testutil.CreateUser(t, db, models.RoleStudent, true)

	active, err := svc.Create(ctx, testutil.PrincipalOf(owner), validInput())
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, testutil.PrincipalOf(owner), validInput())
	require.NoError(t, err)
	off := false
	_, err = svc.Update(ctx, testutil.PrincipalOf(owner), hidden.ID, UpdateInput{IsActive: &off})
	require.NoError(t, err)

	list, err := svc.List(ctx, testutil.PrincipalOf(student), ListFilter{Search: "KUBERNETES"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	_, err = svc.Get(ctx, testutil.PrincipalOf(student), hidden.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.Get(ctx, testutil.PrincipalOf(owner), hidden.ID)
	require.NoError(t, err)

	mine, err := svc.Mine(ctx, testutil.PrincipalOf(owner))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestPurchase(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	student := testutil.CreateUser(t, db, models.RoleStudent, true)
	sp := testutil.PrincipalOf(student)

	project, err := svc.Create(ctx, testutil.PrincipalOf(owner), validInput())
	require.NoError(t, err)

	purchase, err := svc.Purchase(ctx, sp, project.ID)
	require.NoError(t, err)
	assert.True(t, project.Price.Equal(purchase.Price))

	items := testutil.NotificationsFor(t, db, owner)
	require.Len(t, items, 1)
	assert.Equal(t, "Project Purchased", items[0].Title)
	assert.Equal(t, "student purchased your project: "+project.Title, items[0].Message)

	_, err = svc.Purchase(ctx, sp, project.ID)
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))

	_, err = svc.Purchase(ctx, sp, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Purchase(ctx, testutil.PrincipalOf(owner), project.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// purchases survive the project being withdrawn
	require.NoError(t, svc.Delete(ctx, testutil.PrincipalOf(owner), project.ID))
	bought, err := svc.MyPurchases(ctx, sp)
	require.NoError(t, err)
	require.Len(t, bought, 1)
	require.NotNil(t, bought[0].Project)
	assert.Equal(t, project.Title, bought[0].Project.Title)

	st, err := svc.Stats(ctx, testutil.PrincipalOf(owner))
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalSales)
	assert.True(t, decimal.NewFromInt(30).Equal(st.Revenue))
	assert.Zero(t, st.TotalProjects)
}

func TestPurchase_Inactive(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	student := testutil.CreateUser(t, db, models.RoleStudent, true)

	project, err := svc.Create(ctx, testutil.PrincipalOf(owner), validInput())
	require.NoError(t, err)
	off := false
	_, err = svc.Update(ctx, testutil.PrincipalOf(owner), project.ID, UpdateInput{IsActive: &off})
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, testutil.PrincipalOf(student), project.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestPurchase_ConcurrentDuplicates(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleFreelancer, true)
	student := testutil.CreateUser(t, db, models.RoleStudent, true)
	project, err := svc.Create(ctx, testutil.PrincipalOf(owner), validInput())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Purchase(ctx, testutil.PrincipalOf(student), project.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
	}
	assert.Equal(t, 1, ok)

	var n int64
	db.Model(&models.ProjectPurchase{}).Where("project_id = ?", project.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}
