package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-api/config"
	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	loginPath    = "/api/v1/auth/jwt/create"
	refreshPath  = "/api/v1/auth/jwt/refresh"
	verifyPath   = "/api/v1/auth/jwt/verify"
	registerPath = "/api/v1/auth/users"
	mePath       = "/api/v1/auth/users/me"
)

func login(t *testing.T, s *testServer, username, password string) middleware.TokenPair {
	t.Helper()
	w := s.do(http.MethodPost, loginPath, "", map[string]any{"username": username, "password": password})
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	return middleware.TokenPair{Access: body["access"].(string), Refresh: body["refresh"].(string)}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateUser(t, s.db, "alice", models.RoleCustomer)

	pair := login(t, s, "alice", testutil.Password)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	w := s.do(http.MethodGet, mePath, pair.Access, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "alice", decode(t, w)["username"])
}

func TestLogin_FailuresStartCooldown(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateUser(t, s.db, "alice", models.RoleCustomer)

	w := s.do(http.MethodPost, loginPath, "", map[string]any{"username": "alice", "password": "wrong"})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "No active account found with the given credentials", decode(t, w)["detail"])

	w = s.do(http.MethodPost, loginPath, "", map[string]any{"username": "alice", "password": testutil.Password})
	requireStatus(t, w, http.StatusTooManyRequests)
	assert.Contains(t, decode(t, w)["detail"], "Too many failed login attempts. Try again in")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var attempt models.LoginAttempt
	require.NoError(t, s.db.First(&attempt, "username = ?", "alice").Error)
	assert.Equal(t, 1, attempt.FailCount)
}

func TestLogin_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, loginPath, "", map[string]any{"username": "alice"})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, []any{"This field is required."}, fieldErrors(t, w, "password"))
}

func TestRefreshToken_RotatesAndBlacklists(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateUser(t, s.db, "alice", models.RoleCustomer)
	pair := login(t, s, "alice", testutil.Password)

	w := s.do(http.MethodPost, refreshPath, "", map[string]any{"refresh": pair.Refresh})
	requireStatus(t, w, http.StatusOK)
	rotated := decode(t, w)
	assert.NotEqual(t, pair.Refresh, rotated["refresh"])

	w = s.do(http.MethodPost, refreshPath, "", map[string]any{"refresh": pair.Refresh})
	requireStatus(t, w, http.StatusUnauthorized)
	body := decode(t, w)
	assert.Equal(t, "Token is blacklisted", body["detail"])
	assert.Equal(t, "token_not_valid", body["code"])

	w = s.do(http.MethodPost, refreshPath, "", map[string]any{"refresh": pair.Access})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Token is invalid or expired", decode(t, w)["detail"])
}

func TestVerifyToken(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateUser(t, s.db, "alice", models.RoleCustomer)
	pair := login(t, s, "alice", testutil.Password)

	cases := map[string]struct {
		token      string
		wantStatus int
	}{
		"access":  {token: pair.Access, wantStatus: http.StatusOK},
		"refresh": {token: pair.Refresh, wantStatus: http.StatusOK},
		"garbage": {token: "not.a.token", wantStatus: http.StatusUnauthorized},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodPost, verifyPath, "", map[string]any{"token": tc.token})
			requireStatus(t, w, tc.wantStatus)
		})
	}
}

func TestAuthRequired_RejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice", models.RoleCustomer)
	pair, err := middleware.GenerateTokenPair(alice)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		detail string
	}{
		"wrong scheme": {header: "Token " + pair.Access, detail: "Authorization header must contain two space-delimited values"},
		"refresh":      {header: "Bearer " + pair.Refresh, detail: "Given token not valid for any token type"},
		"tampered":     {header: "Bearer " + pair.Access + "x", detail: "Given token not valid for any token type"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, mePath, nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", tc.header)
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			requireStatus(t, w, http.StatusUnauthorized)
			assert.Equal(t, tc.detail, decode(t, w)["detail"])
		})
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, registerPath, "", map[string]any{
		"username": "newbie", "email": "newbie@example.com", "password": "long-enough",
	})
	requireStatus(t, w, http.StatusCreated)
	body := decode(t, w)
	assert.Equal(t, "newbie", body["username"])
	assert.Equal(t, "newbie@example.com", body["email"])
	login(t, s, "newbie", "long-enough")

	cases := map[string]struct {
		body    map[string]any
		field   string
		message string
	}{
		"taken username": {
			body:    map[string]any{"username": "newbie", "password": "long-enough"},
			field:   "username",
			message: "A user with that username already exists.",
		},
		"short password": {
			body:    map[string]any{"username": "other", "password": "short"},
			field:   "password",
			message: "Ensure this field has at least 8 characters.",
		},
		"bad email": {
			body:    map[string]any{"username": "other", "password": "long-enough", "email": "nope"},
			field:   "email",
			message: "Enter a valid email address.",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodPost, registerPath, "", tc.body)
			requireStatus(t, w, http.StatusBadRequest)
			assert.Equal(t, []any{tc.message}, fieldErrors(t, w, tc.field))
		})
	}

	config.Settings.Demo.Enabled = true
	w = s.do(http.MethodPost, registerPath, "", map[string]any{"username": "late", "password": "long-enough"})
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Registration is disabled in demo mode.", decode(t, w)["detail"])
}
