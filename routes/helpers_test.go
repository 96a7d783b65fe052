package routes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/policy"
	"restaurant-api/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupDB(t)

	authz, err := policy.NewDefaultAuthorizer()
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RequestID())
	SetupRoutes(r, authz, nil, "test")
	return &testServer{t: t, db: db, engine: r}
}

func (s *testServer) token(user *models.User) string {
	s.t.Helper()
	pair, err := middleware.GenerateTokenPair(user)
	require.NoError(s.t, err)
	return pair.Access
}

// do sends body as JSON (strings are sent verbatim) with an optional bearer token.
func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// fieldErrors returns the messages reported for field in a 400 response
func fieldErrors(t *testing.T, w *httptest.ResponseRecorder, field string) []any {
	t.Helper()
	body := decode(t, w)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, w.Body.String())
	msgs, _ := errs[field].([]any)
	return msgs
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

const (
	itemsPath      = "/api/v1/restaurant/items"
	categoriesPath = "/api/v1/restaurant/categories"
	cartPath       = "/api/v1/restaurant/cart"
	ordersPath     = "/api/v1/restaurant/orders"
)
