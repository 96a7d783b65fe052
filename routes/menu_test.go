package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"restaurant-api/config"
	"restaurant-api/models"
	"restaurant-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuItems_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, itemsPath, "", nil)
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Authentication credentials were not provided.", decode(t, w)["detail"])
}

func TestMenuItems_WritePermissions(t *testing.T) {
	s := newTestServer(t)
	category := testutil.CreateCategory(t, s.db, "mains", "Mains")

	cases := map[string]struct {
		role       models.UserRole
		wantStatus int
	}{
		"manager":       {role: models.RoleManager, wantStatus: http.StatusCreated},
		"delivery crew": {role: models.RoleDeliveryCrew, wantStatus: http.StatusForbidden},
		"customer":      {role: models.RoleCustomer, wantStatus: http.StatusForbidden},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			user := testutil.CreateUser(t, s.db, "writer_"+string(tc.role), tc.role)
			w := s.do(http.MethodPost, itemsPath, s.token(user), map[string]any{
				"title":    "Soup of " + string(tc.role),
				"price":    "5.50",
				"category": category.ID,
			})
			requireStatus(t, w, tc.wantStatus)
			if tc.wantStatus == http.StatusForbidden {
				assert.Equal(t, "You must be a manager to perform write actions.", decode(t, w)["detail"])
			}
		})
	}
}

func TestCreateMenuItem(t *testing.T) {
	s := newTestServer(t)
	manager := testutil.CreateUser(t, s.db, "manager", models.RoleManager)
	category := testutil.CreateCategory(t, s.db, "desserts", "Desserts")

	w := s.do(http.MethodPost, itemsPath, s.token(manager), map[string]any{
		"title":    "Tiramisu",
		"price":    "5.5",
		"featured": true,
		"category": category.ID,
	})
	requireStatus(t, w, http.StatusCreated)

	body := decode(t, w)
	assert.Equal(t, "Menu item created successfully.", body["detail"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "Tiramisu", data["title"])
	assert.Equal(t, "5.50", data["price"])
	assert.Equal(t, true, data["featured"])
	assert.Equal(t, "Desserts", data["category"].(map[string]any)["title"])
	assert.Equal(t, fmt.Sprintf("http://example.com%s/%v", itemsPath, data["id"]),
		data["links"].(map[string]any)["self"])

	var stored models.MenuItem
	require.NoError(t, s.db.First(&stored, "title = ?", "Tiramisu").Error)
	assert.Equal(t, models.Money(550), stored.Price)
	assert.False(t, stored.IsDemo)
}

func TestCreateMenuItem_Validation(t *testing.T) {
	s := newTestServer(t)
	manager := testutil.CreateUser(t, s.db, "manager", models.RoleManager)
	category := testutil.CreateCategory(t, s.db, "mains", "Mains")
	testutil.CreateMenuItem(t, s.db, "Lasagne", 1250, category)

	cases := map[string]struct {
		body    any
		field   string
		message string
	}{
		"missing title": {
			body:    map[string]any{"price": "3.00", "category": category.ID},
			field:   "title",
			message: "This field is required.",
		},
		"blank title": {
			body:    map[string]any{"title": "", "price": "3.00", "category": category.ID},
			field:   "title",
			message: "This field may not be blank.",
		},
		"duplicate title": {
			body:    map[string]any{"title": "Lasagne", "price": "3.00", "category": category.ID},
			field:   "title",
			message: "menu item with this title already exists.",
		},
		"too many decimals": {
			body:    map[string]any{"title": "Bread", "price": "3.005", "category": category.ID},
			field:   "price",
			message: "Ensure that there are no more than 2 decimal places.",
		},
		"not a number": {
			body:    map[string]any{"title": "Bread", "price": "cheap", "category": category.ID},
			field:   "price",
			message: "A valid number is required.",
		},
		"zero price": {
			body:    map[string]any{"title": "Bread", "price": 0, "category": category.ID},
			field:   "price",
			message: "Must be a positive number.",
		},
		"price over limit": {
			body:    map[string]any{"title": "Bread", "price": "100.01", "category": category.ID},
			field:   "price",
			message: "Must not exceed 100.00.",
		},
		"unknown category": {
			body:    map[string]any{"title": "Bread", "price": "3.00", "category": 999},
			field:   "category",
			message: `Invalid pk "999" - object does not exist.`,
		},
		"category not an integer": {
			body:    map[string]any{"title": "Bread", "price": "3.00", "category": "mains"},
			field:   "category",
			message: "A valid integer is required.",
		},
		"featured not a boolean": {
			body:    map[string]any{"title": "Bread", "price": "3.00", "category": category.ID, "featured": "yes"},
			field:   "featured",
			message: "Must be a valid boolean.",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodPost, itemsPath, s.token(manager), tc.body)
			requireStatus(t, w, http.StatusBadRequest)
			assert.Equal(t, []any{tc.message}, fieldErrors(t, w, tc.field))
		})
	}
}

func TestCreateMenuItem_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	manager := testutil.CreateUser(t, s.db, "manager", models.RoleManager)

	w := s.do(http.MethodPost, itemsPath, s.token(manager), `[1, 2]`)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, []any{"Invalid data. Expected a dictionary, but got array."},
		fieldErrors(t, w, "non_field_errors"))

	w = s.do(http.MethodPost, itemsPath, s.token(manager), `{"title": `)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, decode(t, w)["detail"], "JSON parse error")
}

func TestUpdateMenuItem(t *testing.T) {
	s := newTestServer(t)
	manager := testutil.CreateUser(t, s.db, "manager", models.RoleManager)
	mains := testutil.CreateCategory(t, s.db, "mains", "Mains")
	specials := testutil.CreateCategory(t, s.db, "specials", "Specials")
	item := testutil.CreateMenuItem(t, s.db, "Risotto", 1400, mains)
	path := fmt.Sprintf("%s/%d", itemsPath, item.ID)

	w := s.do(http.MethodPatch, path, s.token(manager), map[string]any{"price": 15})
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	assert.Equal(t, "Menu item partially updated successfully.", body["detail"])
	assert.Equal(t, "15.00", body["data"].(map[string]any)["price"])
	assert.Equal(t, "Risotto", body["data"].(map[string]any)["title"])

	w = s.do(http.MethodPut, path, s.token(manager), map[string]any{"price": "9.99"})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, []any{"This field is required."}, fieldErrors(t, w, "title"))

	w = s.do(http.MethodPut, path, s.token(manager), map[string]any{
		"title":    "Risotto",
		"price":    "9.99",
		"category": specials.ID,
	})
	requireStatus(t, w, http.StatusOK)
	body = decode(t, w)
	assert.Equal(t, "Menu item updated successfully.", body["detail"])
	assert.Equal(t, "Specials", body["data"].(map[string]any)["category"].(map[string]any)["title"])

	var stored models.MenuItem
	require.NoError(t, s.db.First(&stored, item.ID).Error)
	assert.Equal(t, models.Money(999), stored.Price)
	assert.Equal(t, specials.ID, stored.CategoryID)
}

func TestMenuItem_NotFound(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateUser(t, s.db, "customer", models.RoleCustomer)

	for _, path := range []string{itemsPath + "/404", itemsPath + "/abc"} {
		w := s.do(http.MethodGet, path, s.token(customer), nil)
		requireStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "Not found.", decode(t, w)["detail"])
	}
}

func TestDeleteMenuItem_ClearsCartsAndKeepsOrderHistory(t *testing.T) {
	s := newTestServer(t)
	manager := testutil.CreateUser(t, s.db, "manager", models.RoleManager)
	customer := testutil.CreateUser(t, s.db, "customer", models.RoleCustomer)
	category := testutil.CreateCategory(t, s.db, "mains", "Mains")
	item := testutil.CreateMenuItem(t, s.db, "Gnocchi", 1100, category)
	testutil.AddToCart(t, s.db, customer, item, 2)
	order := testutil.CreateOrder(t, s.db, customer, models.Today(time.Now()), item)

	w := s.do(http.MethodDelete, fmt.Sprintf("%s/%d", itemsPath, item.ID), s.token(manager), nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Menu item deleted successfully.", decode(t, w)["detail"])

	var carts int64
	require.NoError(t, s.db.Model(&models.Cart{}).Count(&carts).Error)
	assert.Zero(t, carts)

	var line models.OrderItem
	require.NoError(t, s.db.Where("order_id = ?", order.ID).First(&line).Error)
	assert.Nil(t, line.MenuItemID)
	assert.Equal(t, "Gnocchi", line.ItemTitle)
}

func TestListMenuItems_FiltersAndOrdering(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateUser(t, s.db, "customer", models.RoleCustomer)
	mains := testutil.CreateCategory(t, s.db, "mains", "Mains")
	drinks := testutil.CreateCategory(t, s.db, "drinks", "Drinks")
	testutil.CreateMenuItem(t, s.db, "Chicken Curry", 1200, mains)
	testutil.CreateMenuItem(t, s.db, "Green Curry", 1100, mains)
	testutil.CreateMenuItem(t, s.db, "Lemonade", 350, drinks)
	featured := testutil.CreateMenuItem(t, s.db, "Iced Tea", 300, drinks)
	require.NoError(t, s.db.Model(featured).Update("featured", true).Error)

	cases := map[string]struct {
		query  string
		titles []string
	}{
		"default order":     {query: "", titles: []string{"Chicken Curry", "Green Curry", "Lemonade", "Iced Tea"}},
		"price at most":     {query: "?price__lte=3.50", titles: []string{"Lemonade", "Iced Tea"}},
		"featured":          {query: "?featured=true", titles: []string{"Iced Tea"}},
		"category":          {query: fmt.Sprintf("?category=%d", drinks.ID), titles: []string{"Lemonade", "Iced Tea"}},
		"search every term": {query: "?search=curry%20GREEN", titles: []string{"Green Curry"}},
		"price descending":  {query: "?order_by=-price", titles: []string{"Chicken Curry", "Green Curry", "Lemonade", "Iced Tea"}},
		"title ascending":   {query: "?order_by=title", titles: []string{"Chicken Curry", "Green Curry", "Iced Tea", "Lemonade"}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodGet, itemsPath+tc.query, s.token(customer), nil)
			requireStatus(t, w, http.StatusOK)
			body := decode(t, w)
			assert.Equal(t, "Menu items", body["detail"])

			var titles []string
			for _, row := range body["data"].([]any) {
				titles = append(titles, row.(map[string]any)["title"].(string))
			}
			assert.Equal(t, tc.titles, titles)
			assert.EqualValues(t, len(tc.titles), body["count"])
		})
	}
}

func TestListMenuItems_InvalidParameters(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateUser(t, s.db, "customer", models.RoleCustomer)

	cases := map[string]struct {
		query   string
		field   string
		message string
	}{
		"price":    {query: "?price__lte=abc", field: "price__lte", message: "Enter a number."},
		"featured": {query: "?featured=maybe", field: "featured", message: "Must be a valid boolean."},
		"ordering": {
			query:   "?order_by=calories",
			field:   "ordering",
			message: "Invalid ordering field(s): calories. Expected one of: id, title, price.",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodGet, itemsPath+tc.query, s.token(customer), nil)
			requireStatus(t, w, http.StatusBadRequest)
			assert.Equal(t, []any{tc.message}, fieldErrors(t, w, tc.field))
		})
	}
}

func TestListMenuItems_Pagination(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateUser(t, s.db, "customer", models.RoleCustomer)
	category := testutil.CreateCategory(t, s.db, "mains", "Mains")
	for i := 1; i <= 10; i++ {
		testutil.CreateMenuItem(t, s.db, fmt.Sprintf("Dish %02d", i), models.Money(i*100), category)
	}

	w := s.do(http.MethodGet, itemsPath, s.token(customer), nil)
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	assert.EqualValues(t, 10, body["count"])
	assert.Len(t, body["data"], 8)
	assert.Equal(t, "http://example.com"+itemsPath+"?page=2", body["next"])
	assert.Nil(t, body["previous"])

	w = s.do(http.MethodGet, itemsPath+"?page=2", s.token(customer), nil)
	requireStatus(t, w, http.StatusOK)
	body = decode(t, w)
	assert.Len(t, body["data"], 2)
	assert.Nil(t, body["next"])
	assert.Equal(t, "http://example.com"+itemsPath, body["previous"])

	w = s.do(http.MethodGet, itemsPath+"?perpage=5&page=2", s.token(customer), nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decode(t, w)["data"], 5)

	for _, query := range []string{"?page=3", "?page=0", "?page=last", "?page=1152921504606846977", "?page=9223372036854775807"} {
		w = s.do(http.MethodGet, itemsPath+query, s.token(customer), nil)
		requireStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "Invalid page.", decode(t, w)["detail"])
	}
}

func TestMenuItems_DemoModeProtectsProductionRows(t *testing.T) {
	s := newTestServer(t)
	category := testutil.CreateCategory(t, s.db, "mains", "Mains")
	item := testutil.CreateMenuItem(t, s.db, "Paella", 1800, category)
	config.Settings.Demo.Enabled = true
	manager := testutil.CreateUser(t, s.db, "demo_manager", models.RoleManager,
		testutil.AsDemo(time.Now().Add(time.Hour)))
	path := fmt.Sprintf("%s/%d", itemsPath, item.ID)

	w := s.do(http.MethodPatch, path, s.token(manager), map[string]any{"price": "1.00"})
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Cannot modify production data in demo mode.", decode(t, w)["detail"])

	w = s.do(http.MethodDelete, path, s.token(manager), nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Cannot delete production data in demo mode.", decode(t, w)["detail"])

	w = s.do(http.MethodPost, itemsPath, s.token(manager), map[string]any{
		"title": "Demo Tapas", "price": "4.00", "category": category.ID,
	})
	requireStatus(t, w, http.StatusCreated)
	id := decode(t, w)["data"].(map[string]any)["id"]

	w = s.do(http.MethodPatch, fmt.Sprintf("%s/%v", itemsPath, id), s.token(manager), map[string]any{"price": "4.50"})
	requireStatus(t, w, http.StatusOK)

	var created models.MenuItem
	require.NoError(t, s.db.First(&created, "title = ?", "Demo Tapas").Error)
	assert.True(t, created.IsDemo)
}

func TestMenuItems_ExpiredDemoUserIsRejected(t *testing.T) {
	s := newTestServer(t)
	config.Settings.Demo.Enabled = true
	user := testutil.CreateUser(t, s.db, "demo_old", models.RoleCustomer,
		testutil.AsDemo(time.Now().Add(time.Hour)))
	token := s.token(user)
	require.NoError(t, s.db.Model(user).Update("demo_expires_at", time.Now().Add(-time.Minute)).Error)

	w := s.do(http.MethodGet, itemsPath, token, nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Your demo account has expired. Please create a new demo user.", decode(t, w)["detail"])
}
