package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/notification"
	"rollcall/internal/roster"
)

type fakeUsers struct {
	users   map[string]roster.User
	allowed map[string]bool
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (*roster.User, error) {
	if u, ok := f.users[email]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u roster.User) (roster.User, error) {
	u.ID = uuid.New()
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUsers) IsEmailAllowed(_ context.Context, email string) (bool, error) {
	return f.allowed[email], nil
}

func testServer(users *fakeUsers) *Server {
	gin.SetMode(gin.TestMode)
	return &Server{
		Cfg: config.App{
			JWTIssuer:       "rollcall-test",
			JWTSigningKey:   "test-key",
			AccessTTL:       time.Minute,
			RefreshTTL:      time.Hour,
			RateLimitPerMin: 1000,
		},
		Users: users,
	}
}

func TestIssueTokenForStaff(t *testing.T) {
	teacher := roster.User{ID: uuid.New(), Email: "t@example.edu", Name: "T", Role: auth.RoleTeacher}
	srv := testServer(&fakeUsers{
		users:   map[string]roster.User{"t@example.edu": teacher},
		allowed: map[string]bool{},
	})
	router := srv.Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", strings.NewReader(`{"email":"T@example.edu"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TEACHER", body.Role)

	claims, err := auth.Parse(body.AccessToken, "test-key", "rollcall-test")
	require.NoError(t, err)
	assert.Equal(t, teacher.ID.String(), claims.Subject)
	assert.Equal(t, "t@example.edu", claims.Email)
}

func TestIssueTokenRejectsUnknownEmail(t *testing.T) {
	srv := testServer(&fakeUsers{users: map[string]roster.User{}, allowed: map[string]bool{}})
	router := srv.Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", strings.NewReader(`{"email":"nobody@example.edu"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := testServer(&fakeUsers{users: map[string]roster.User{}, allowed: map[string]bool{}})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/classes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffRoutesRejectStudents(t *testing.T) {
	srv := testServer(&fakeUsers{users: map[string]roster.User{}, allowed: map[string]bool{}})
	router := srv.Router()

	pair, err := auth.Issue(uuid.NewString(), "s@example.edu", auth.RoleStudent, "rollcall-test", "test-key", time.Minute, time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/classes", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type fakeNotifStore struct {
	inserted []notification.Notification
}

func (f *fakeNotifStore) StudentExists(context.Context, uuid.UUID) (bool, error) { return true, nil }

func (f *fakeNotifStore) Insert(_ context.Context, n notification.Notification) (notification.Notification, error) {
	f.inserted = append(f.inserted, n)
	return n, nil
}

func (f *fakeNotifStore) ListForStudent(context.Context, uuid.UUID, bool) ([]notification.Notification, error) {
	return nil, nil
}

func (f *fakeNotifStore) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeNotifStore) StudentIDByEmail(context.Context, string) (*uuid.UUID, error) {
	return nil, nil
}

type staticThresholds struct {
	ids []uuid.UUID
}

func (s staticThresholds) BelowThreshold(context.Context, float64, *uuid.UUID) ([]uuid.UUID, error) {
	return s.ids, nil
}

func TestNotifyThresholdAcceptsZero(t *testing.T) {
	srv := testServer(&fakeUsers{users: map[string]roster.User{}, allowed: map[string]bool{}})
	store := &fakeNotifStore{}
	srv.Notifications = notification.NewService(store, staticThresholds{ids: []uuid.UUID{uuid.New()}})
	router := srv.Router()

	pair, err := auth.Issue(uuid.NewString(), "t@example.edu", auth.RoleTeacher, "rollcall-test", "test-key", time.Minute, time.Hour)
	require.NoError(t, err)

	// A threshold of 0 targets students with no attendance at all and
	// must not be rejected as a missing field.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/threshold",
		strings.NewReader(`{"threshold":0,"title":"Wake up","message":"You have 0% attendance"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.inserted, 1)
	require.NotNil(t, store.inserted[0].Threshold)
	assert.Equal(t, 0.0, *store.inserted[0].Threshold)

	// Omitting the field entirely is still a binding error.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/notifications/threshold",
		strings.NewReader(`{"title":"Wake up","message":"no threshold"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthzReportsUnavailableBackends(t *testing.T) {
	srv := testServer(&fakeUsers{users: map[string]roster.User{}, allowed: map[string]bool{}})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
