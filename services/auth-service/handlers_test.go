package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lapordesa/pkg/middleware"
	"lapordesa/services/auth-service/models"
	"lapordesa/services/auth-service/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	pingErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errUserNotFound
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return errEmailTaken
	}
	u.ID = uuid.NewString()
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUsers) Ping(ctx context.Context) error { return f.pingErr }

var secret = []byte("test-secret")

func newTestServer(users *fakeUsers) http.Handler {
	s := &server{
		users:     users,
		tokens:    utils.NewIssuer(secret, time.Hour),
		logger:    zap.NewNop(),
		jwtSecret: secret,
	}
	return s.routes()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func seedAdmin(t *testing.T, users *fakeUsers) {
	t.Helper()
	hash, err := utils.HashPassword("admin12345")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email: "admin@desa.id", Password: hash, Name: "Admin Desa", Role: models.RoleAdmin,
	}))
}

func TestRegisterThenMe(t *testing.T) {
	users := newFakeUsers()
	h := newTestServer(users)

	code, env := call(t, h, http.MethodPost, "/api/citizens/register", "", map[string]string{
		"email": "Siti@Desa.id", "password": "rahasia123", "name": " Siti Aminah ", "nik": "3201234567890123",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var s session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "siti@desa.id", s.Email)
	assert.Equal(t, models.RoleCitizen, s.Role)

	claims, err := middleware.ParseToken(s.Token, secret)
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", claims.Name)

	code, env = call(t, h, http.MethodGet, "/api/citizens/me", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "password")
	assert.NotContains(t, string(env.Data), "rahasia123")
}

func TestRegisterValidation(t *testing.T) {
	h := newTestServer(newFakeUsers())

	cases := map[string]map[string]string{
		"missing name":   {"email": "a@desa.id", "password": "rahasia123"},
		"bad email":      {"email": "not-an-email", "password": "rahasia123", "name": "Budi"},
		"short password": {"email": "a@desa.id", "password": "123", "name": "Budi"},
		"short name":     {"email": "a@desa.id", "password": "rahasia123", "name": "Bu"},
		"bad nik":        {"email": "a@desa.id", "password": "rahasia123", "name": "Budi", "nik": "12ab"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			code, env := call(t, h, http.MethodPost, "/api/citizens/register", "", body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, env.Success)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestServer(newFakeUsers())
	body := map[string]string{"email": "a@desa.id", "password": "rahasia123", "name": "Budi"}

	code, _ := call(t, h, http.MethodPost, "/api/citizens/register", "", body)
	require.Equal(t, http.StatusCreated, code)
	code, _ = call(t, h, http.MethodPost, "/api/citizens/register", "", body)
	assert.Equal(t, http.StatusConflict, code)
}

func TestLoginIsRoleScoped(t *testing.T) {
	users := newFakeUsers()
	seedAdmin(t, users)
	h := newTestServer(users)

	code, env := call(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "ADMIN@desa.id", "password": "admin12345"})
	require.Equal(t, http.StatusOK, code)
	var s session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, models.RoleAdmin, s.Role)

	code, _ = call(t, h, http.MethodPost, "/api/citizens/login", "", map[string]string{"email": "admin@desa.id", "password": "admin12345"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = call(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "admin@desa.id", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Email atau password salah", env.Message)

	code, _ = call(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "nobody@desa.id", "password": "admin12345"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMeRequiresToken(t *testing.T) {
	h := newTestServer(newFakeUsers())

	code, _ := call(t, h, http.MethodGet, "/api/citizens/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := utils.NewIssuer(secret, time.Hour).Issue("gone", "x@desa.id", "X", models.RoleCitizen)
	require.NoError(t, err)
	code, _ = call(t, h, http.MethodGet, "/api/citizens/me", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthReportsDatabase(t *testing.T) {
	users := newFakeUsers()
	h := newTestServer(users)

	code, _ := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	users.pingErr = errors.New("connection refused")
	code, env := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, strings.Contains(env.Message, "unhealthy"))
}
