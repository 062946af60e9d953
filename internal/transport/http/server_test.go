package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hr-attendance/internal/app"
	"hr-attendance/internal/bootstrap"
	"hr-attendance/internal/config"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/model"
	"hr-attendance/internal/testutil"
	httptransport "hr-attendance/internal/transport/http"
)

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	services *bootstrap.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "hr-attendance-test",
			Env:         "test",
			GinMode:     gin.TestMode,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{
			SecretKey:                "test-secret",
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 30,
			BcryptCost:               bcrypt.MinCost,
		},
	}
	db := testutil.NewDB(t)
	services, err := bootstrap.NewServices(cfg, db, nil, nil, logging.Discard())
	require.NoError(t, err)

	a := &bootstrap.App{
		Config:    cfg,
		Logger:    logging.Discard(),
		DB:        db,
		Services:  services,
		StartedAt: time.Now(),
	}
	return &testServer{router: httptransport.NewRouter(a), db: db, services: services}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(t *testing.T, username string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, _, err := s.services.Users.EnsureAdmin(context.Background(), "admin", "admin@example.com", "admin123")
	require.NoError(t, err)
	return s.login(t, "admin", "admin123")
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Detail
}

func TestSignup_HidesPasswordHash(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"username":  "alice",
		"email":     "alice@example.com",
		"full_name": "Alice",
		"password":  "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "user", body["role"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "password")

	var stored model.User
	require.NoError(t, s.db.Where("username = ?", "alice").First(&stored).Error)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func TestSignup_Duplicates(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "someone",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", detail(t, w))

	w = s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "alice",
		"email":    "fresh@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already registered", detail(t, w))

	var n int64
	require.NoError(t, s.db.Model(&model.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSignup_InvalidPayload(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"username": "bob", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"username": "bob", "email": "bob@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	token := s.login(t, "alice", "password123")

	w := s.do(t, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	form := url.Values{"username": {"alice"}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "access_token")

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect username or password", detail(t, w))

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "ghost", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect username or password", detail(t, w))
}

func TestUserRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authenticated", detail(t, w))

	w = s.do(t, http.MethodPost, "/user/attendance/check-in", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Could not validate credentials", detail(t, w))

	var n int64
	require.NoError(t, s.db.Model(&model.Attendance{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAdminRoutes_Authorization(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")
	userToken := s.login(t, "alice", "password123")
	adminToken := s.adminToken(t)

	w := s.do(t, http.MethodGet, "/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "The user doesn't have enough privileges", detail(t, w))

	w = s.do(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password_hash")
	}
}

func TestAttendanceFlow(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")
	token := s.login(t, "alice", "password123")

	w := s.do(t, http.MethodPost, "/user/attendance/check-in", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var opened map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.Nil(t, opened["check_out"])
	assert.NotContains(t, opened, "open_slot")

	w = s.do(t, http.MethodPost, "/user/attendance/check-in", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already checked in", detail(t, w))

	w = s.do(t, http.MethodPost, "/user/attendance/check-out", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var closed model.Attendance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	require.NotNil(t, closed.CheckOut)
	assert.GreaterOrEqual(t, closed.TotalHours, 0.0)

	w = s.do(t, http.MethodPost, "/user/attendance/check-out", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User not checked in", detail(t, w))

	w = s.do(t, http.MethodGet, "/user/attendance/last10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []model.Attendance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, closed.ID, records[0].ID)

	w = s.do(t, http.MethodGet, "/user/attendance/daily?days=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var totals []model.DailyTotal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totals))
	require.Len(t, totals, 1)
	assert.Equal(t, 1, totals[0].Sessions)
}

func TestAdminUserManagement(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.adminToken(t)

	w := s.do(t, http.MethodPost, "/admin/users", adminToken, gin.H{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "password123",
		"role":     "admin",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		ID   uint       `json:"id"`
		Role model.Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, model.RoleAdmin, created.Role)

	w = s.do(t, http.MethodPost, "/admin/users", adminToken, gin.H{
		"username": "carol",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/admin/users/" + jsonID(created.ID)
	w = s.do(t, http.MethodPut, path, adminToken, gin.H{"full_name": "Carol C.", "role": "user"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"full_name":"Carol C."`)
	assert.Contains(t, w.Body.String(), `"role":"user"`)

	carolToken := s.login(t, "carol", "password123")
	w = s.do(t, http.MethodPost, "/user/attendance/check-in", carolToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, path+"/attendance", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []model.Attendance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)

	w = s.do(t, http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"carol"`)

	w = s.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, app.ErrUserNotFound.Error(), detail(t, w))

	w = s.do(t, http.MethodPut, "/admin/users/abc", adminToken, gin.H{"full_name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndWelcome(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message")

	w = s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Dependencies map[string]struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Dependencies["database"].OK)
	assert.Equal(t, "disabled", body.Dependencies["redis"].Message)
	assert.Equal(t, "disabled", body.Dependencies["rabbitmq"].Message)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestUnauthenticatedUserListingIsNotRouted(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	for _, path := range []string{"/users/", "/users/1", "/test"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.NotContains(t, w.Body.String(), "alice", path)
	}
}
