package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/ai"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/assignment"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/calendar"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/messaging"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/payment"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/referral"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/storage"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/users"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/wallet"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/testutil"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

const testSecret = "handler-test-secret"

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStore) Upload(_ context.Context, r io.Reader, _ int64, filename, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[filename] = data
	return "/api/files/" + filename, nil
}

func (m *memoryStore) PresignedURL(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[token]; !ok {
		return "", storage.ErrNotFound
	}
	return "https://files.example.com/" + token + "?sig=1", nil
}

type env struct {
	db    *gorm.DB
	app   *fiber.App
	store *memoryStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.OpenDB(t)
	log := zerolog.Nop()

	notifier := notification.NewService(gdb, &testutil.RecordingPublisher{}, log)
	cal := calendar.NewService(gdb, log)
	assignments := assignment.NewService(gdb, notifier, cal, log)
	w := wallet.NewWalletService(gdb)
	referrals := referral.NewService(gdb, notifier, w, log)
	userSvc := users.NewService(gdb, notifier, referrals, log)
	store := &memoryStore{objects: map[string][]byte{}}

	authH := &AuthHandler{Users: userSvc, JWTSecret: testSecret, Expires: 60}
	r := &Router{
		JWTSecret:     testSecret,
		Auth:          authH,
		Users:         NewUserHandler(userSvc),
		Assignments:   &AssignmentHandler{Svc: assignments},
		Payments:      NewPaymentHandler(payment.NewService(gdb, assignments, referrals, notifier, log)),
		Marketplace:   NewProductHandler(marketplace.NewService(gdb, notifier, log)),
		Messages:      NewMessageHandler(messaging.NewService(gdb, notifier, log)),
		Notifications: NewNotificationHandler(notifier),
		Calendar:      NewCalendarHandler(cal),
		AI:            NewAIHandler(ai.NewAssistant(gdb, ai.Unconfigured{}, assignments, config.AIConfig{HistorySize: 8}, log)),
		Referrals:     NewReferralHandler(referrals, w),
		Uploads:       NewUploadHandler(store, 1<<20),
		Categories:    NewCategoryHandler(gdb),
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	r.Register(app)
	return &env{db: gdb, app: app, store: store}
}

func (e *env) cookieFor(t *testing.T, u *models.User) *http.Cookie {
	t.Helper()
	token, err := utils.SignJWT(testSecret, u.ID.String(), string(u.Role), u.IsApproved, 60)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.CookieName, Value: token}
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors"`
	Data    json.RawMessage     `json:"data"`
}

func (e *env) do(t *testing.T, req *http.Request, cookie *http.Cookie) (*http.Response, envelope) {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var body envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func jsonRequest(method, path string, v interface{}) *http.Request {
	var body io.Reader
	if v != nil {
		b, _ := json.Marshal(v)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterLoginAndMe(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, jsonRequest(http.MethodPost, "/api/auth/register", fiber.Map{
		"email":      "Ana@Example.com",
		"password":   "secret1",
		"first_name": "Ana",
	}), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	resp, body = e.do(t, jsonRequest(http.MethodGet, "/api/auth/me", nil), session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body.Data), `"email":"ana@example.com"`)
	assert.Contains(t, string(body.Data), `"role":"student"`)

	resp, body = e.do(t, jsonRequest(http.MethodPost, "/api/auth/login", fiber.Map{
		"email": "ana@example.com", "password": "wrong-one",
	}), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, jsonRequest(http.MethodGet, "/api/assignments", nil), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, body.Success)

	resp, _ = e.do(t, jsonRequest(http.MethodGet, "/api/assignments", nil),
		&http.Cookie{Name: middleware.CookieName, Value: "garbage"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	e := newEnv(t)
	student := testutil.CreateUser(t, e.db, models.RoleStudent, true)
	freelancer := testutil.CreateUser(t, e.db, models.RoleFreelancer, true)

	resp, body := e.do(t, jsonRequest(http.MethodGet, "/api/admin/users", nil), e.cookieFor(t, student))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body.Code)

	resp, _ = e.do(t, jsonRequest(http.MethodPost, "/api/assignments", fiber.Map{}), e.cookieFor(t, freelancer))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCreateAssignment(t *testing.T) {
	e := newEnv(t)
	student := testutil.CreateUser(t, e.db, models.RoleStudent, true)
	cookie := e.cookieFor(t, student)

	resp, body := e.do(t, jsonRequest(http.MethodPost, "/api/assignments", fiber.Map{
		"title": "Hi", "category": "Astrology",
	}), cookie)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "title")
	assert.Contains(t, body.Errors, "category")
	assert.Contains(t, body.Errors, "deadline")

	resp, body = e.do(t, jsonRequest(http.MethodPost, "/api/assignments", fiber.Map{
		"title":       "Build a REST API",
		"description": "A small CRUD service with tests and docs.",
		"category":    models.Categories[0],
		"deadline":    time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"price":       "120.50",
	}), cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	assert.Contains(t, string(body.Data), `"status":"draft"`)

	var a models.Assignment
	require.NoError(t, json.Unmarshal(body.Data, &a))

	resp, _ = e.do(t, jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.String()+"/publish", nil), cookie)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = e.do(t, jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.String()+"/publish", nil), cookie)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_state", body.Code)

	resp, _ = e.do(t, jsonRequest(http.MethodGet, "/api/assignments/not-a-uuid", nil), cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, jsonRequest(http.MethodGet, "/api/categories", nil), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body.Data), `"open_assignments":1`)
}

func multipartUpload(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAndDownload(t *testing.T) {
	e := newEnv(t)
	student := testutil.CreateUser(t, e.db, models.RoleStudent, true)
	cookie := e.cookieFor(t, student)

	resp, body := e.do(t, multipartUpload(t, "notes.txt", []byte("hello")), cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var ref models.FileRef
	require.NoError(t, json.Unmarshal(body.Data, &ref))
	assert.Equal(t, "notes.txt", ref.FileName)
	assert.Equal(t, int64(5), ref.FileSize)
	assert.Equal(t, []byte("hello"), e.store.objects["notes.txt"])

	resp, _ = e.do(t, jsonRequest(http.MethodGet, ref.FileURL, nil), nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "https://files.example.com/notes.txt"))

	resp, _ = e.do(t, jsonRequest(http.MethodGet, "/api/files/missing", nil), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, multipartUpload(t, "big.bin", make([]byte, 2<<20)), cookie)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "file")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	resp, _ = e.do(t, req, cookie)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAIChatFallsBackWhenUnconfigured(t *testing.T) {
	e := newEnv(t)
	student := testutil.CreateUser(t, e.db, models.RoleStudent, true)
	freelancer := testutil.CreateUser(t, e.db, models.RoleFreelancer, true)

	resp, body := e.do(t, jsonRequest(http.MethodPost, "/api/ai/chat", fiber.Map{"content": "What is a closure?"}), e.cookieFor(t, student))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)

	var reply ai.Reply
	require.NoError(t, json.Unmarshal(body.Data, &reply))
	assert.Equal(t, ai.FallbackMisconfigured, reply.Message.Content)

	resp, _ = e.do(t, jsonRequest(http.MethodPost, "/api/ai/chat", fiber.Map{"content": "hi"}), e.cookieFor(t, freelancer))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int, time.Duration) bool { return false }

func TestRateLimitedAIChat(t *testing.T) {
	gdb := testutil.OpenDB(t)
	student := testutil.CreateUser(t, gdb, models.RoleStudent, true)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Post("/chat",
		middleware.JWTFromCookie(testSecret),
		middleware.AttachJWTLocals(),
		middleware.RateLimit(denyAll{}, "ai", 1, time.Minute),
		func(c *fiber.Ctx) error { return errors.New("unreachable") },
	)

	token, err := utils.SignJWT(testSecret, student.ID.String(), string(student.Role), true, 60)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestNotificationsAndWallet(t *testing.T) {
	e := newEnv(t)
	student := testutil.CreateUser(t, e.db, models.RoleStudent, true)
	cookie := e.cookieFor(t, student)
	require.NoError(t, e.db.Create(&models.Notification{
		UserID: student.ID, Title: "Hello", Message: "World", Type: models.NotifAccount,
	}).Error)

	resp, body := e.do(t, jsonRequest(http.MethodGet, "/api/notifications/unread-count", nil), cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":1}`, string(body.Data))

	resp, _ = e.do(t, jsonRequest(http.MethodPatch, "/api/notifications/read-all", nil), cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = e.do(t, jsonRequest(http.MethodGet, "/api/notifications/unread-count", nil), cookie)
	assert.JSONEq(t, `{"count":0}`, string(body.Data))

	resp, body = e.do(t, jsonRequest(http.MethodGet, "/api/wallet", nil), cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	assert.Contains(t, string(body.Data), `"balance":"0"`)
}
