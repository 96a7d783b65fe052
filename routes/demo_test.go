package routes

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"restaurant-api/config"
	"restaurant-api/models"
	"restaurant-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	demoLoginPath   = "/api/v1/auth/demo-login/"
	demoMePath      = "/api/v1/auth/demo-me"
	demoRefreshPath = "/api/v1/auth/demo-token/refresh"
	demoLogoutPath  = "/api/v1/auth/demo-logout"
)

type demoSession struct {
	username string
	access   string
	refresh  string
}

func demoLogin(t *testing.T, s *testServer, role string) demoSession {
	t.Helper()
	w := s.do(http.MethodPost, demoLoginPath+role, "", nil)
	requireStatus(t, w, http.StatusCreated)
	body := decode(t, w)
	auth := body["auth"].(map[string]any)
	return demoSession{
		username: body["user"].(map[string]any)["username"].(string),
		access:   auth["access"].(string),
		refresh:  auth["refresh"].(string),
	}
}

func TestDemoLogin_Disabled(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, demoLoginPath+"manager", "", nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Demo mode is disabled.", decode(t, w)["detail"])
}

func TestDemoLogin_InvalidRole(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true

	w := s.do(http.MethodPost, demoLoginPath+"chef", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Invalid role. Use role=manager|delivery_crew|customer.", decode(t, w)["detail"])
}

func TestDemoLogin_CreatesTemporaryAccount(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true

	w := s.do(http.MethodPost, demoLoginPath+"Delivery-Crew", "", nil)
	requireStatus(t, w, http.StatusCreated)
	body := decode(t, w)
	assert.Equal(t, "Temporary 'delivery_crew' account created. Expires in 12h.", body["detail"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "delivery_crew", user["role"])
	username := user["username"].(string)
	assert.True(t, strings.HasPrefix(username, "demo_"), username)

	expiresAt, err := time.Parse(time.RFC3339Nano, user["expires_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), expiresAt, time.Minute)

	var stored models.User
	require.NoError(t, s.db.Preload("Groups").First(&stored, "username = ?", username).Error)
	assert.True(t, stored.IsDemo)
	assert.Equal(t, models.RoleDeliveryCrew, stored.Role())

	access := body["auth"].(map[string]any)["access"].(string)
	w = s.do(http.MethodGet, demoMePath, access, nil)
	requireStatus(t, w, http.StatusOK)
	me := decode(t, w)
	assert.Equal(t, username, me["username"])
	assert.Equal(t, true, me["is_demo"])
	assert.Equal(t, "delivery_crew", me["role"])
	assert.InDelta(t, 12*3600, me["ttl_seconds_remaining"], 60)
	assert.Contains(t, me["ttl_hint"], "left")
}

func TestDemoMe_RegularUser(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true
	user := testutil.CreateUser(t, s.db, "alice", models.RoleCustomer)

	w := s.do(http.MethodGet, demoMePath, s.token(user), nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "You must be a demo user to perform this action.", decode(t, w)["detail"])
}

func TestDemoRefreshToken(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true
	session := demoLogin(t, s, "customer")

	w := s.do(http.MethodPost, demoRefreshPath, "", map[string]any{"refresh": session.refresh})
	requireStatus(t, w, http.StatusOK)
	rotated := decode(t, w)["refresh"].(string)

	require.NoError(t, s.db.Model(&models.User{}).Where("username = ?", session.username).
		Update("demo_expires_at", time.Now().Add(-time.Second)).Error)

	w = s.do(http.MethodPost, demoRefreshPath, "", map[string]any{"refresh": rotated})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Demo session expired.", decode(t, w)["detail"])
}

func TestDemoLogout(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true
	session := demoLogin(t, s, "manager")

	w := s.do(http.MethodPost, demoLogoutPath, session.access, map[string]any{"refresh": session.refresh})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Demo user logged out.", decode(t, w)["detail"])

	w = s.do(http.MethodPost, demoLogoutPath, session.access, map[string]any{"refresh": session.refresh})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, []any{"Invalid or expired token."}, fieldErrors(t, w, "refresh"))

	w = s.do(http.MethodPost, demoRefreshPath, "", map[string]any{"refresh": session.refresh})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Token is blacklisted", decode(t, w)["detail"])
}

func TestDemoManager_FullFlow(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true
	manager := demoLogin(t, s, "manager")
	customer := demoLogin(t, s, "customer")

	w := s.do(http.MethodPost, categoriesPath, manager.access, map[string]any{"title": "Demo mains", "slug": "demo-mains"})
	requireStatus(t, w, http.StatusCreated)
	categoryID := decode(t, w)["data"].(map[string]any)["id"]

	w = s.do(http.MethodPost, itemsPath, manager.access, map[string]any{
		"title": "Demo curry", "price": "9.00", "category": categoryID,
	})
	requireStatus(t, w, http.StatusCreated)
	itemID := decode(t, w)["data"].(map[string]any)["id"]

	w = s.do(http.MethodPost, cartPath, customer.access, map[string]any{"menuitem_id": itemID, "quantity": 2})
	requireStatus(t, w, http.StatusCreated)

	w = s.do(http.MethodPost, ordersPath, customer.access, nil)
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, "18.00", decode(t, w)["data"].(map[string]any)["total"])

	var order models.Order
	require.NoError(t, s.db.First(&order).Error)
	assert.True(t, order.IsDemo)
}
