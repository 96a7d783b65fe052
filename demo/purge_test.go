package demo

import (
	"bytes"
	"context"
	"testing"
	"time"

	"restaurant-api/logging"
	"restaurant-api/models"
	"restaurant-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestPurgeExpiredUsers(t *testing.T) {
	db := testutil.SetupDB(t)
	now := time.Now().UTC()
	category := testutil.CreateCategory(t, db, "mains", "Mains")
	item := testutil.CreateMenuItem(t, db, "Stew", 900, category)

	expired := testutil.CreateUser(t, db, "demo_gone", models.RoleCustomer, testutil.AsDemo(now.Add(-time.Minute)))
	expiredCrew := testutil.CreateUser(t, db, "demo_crew", models.RoleDeliveryCrew, testutil.AsDemo(now.Add(-time.Hour)))
	active := testutil.CreateUser(t, db, "demo_here", models.RoleCustomer, testutil.AsDemo(now.Add(time.Hour)))
	regular := testutil.CreateUser(t, db, "regular", models.RoleCustomer)

	testutil.AddToCart(t, db, expired, item, 1)
	testutil.AddToCart(t, db, active, item, 1)
	testutil.CreateOrder(t, db, expired, models.Today(now), item)
	kept := testutil.CreateOrder(t, db, regular, models.Today(now), item)
	require.NoError(t, db.Model(kept).Update("delivery_crew_id", expiredCrew.ID).Error)
	require.NoError(t, db.Create(&models.BlacklistedToken{JTI: "j1", UserID: expired.ID, ExpiresAt: now}).Error)

	n, err := PurgeExpiredUsers(context.Background(), db, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var usernames []string
	require.NoError(t, db.Model(&models.User{}).Order("username").Pluck("username", &usernames).Error)
	assert.Equal(t, []string{"demo_here", "regular"}, usernames)

	assert.EqualValues(t, 1, count(t, db, &models.Cart{}))
	assert.EqualValues(t, 1, count(t, db, &models.Order{}))
	assert.EqualValues(t, 1, count(t, db, &models.OrderItem{}))
	assert.Zero(t, count(t, db, &models.BlacklistedToken{}))

	var order models.Order
	require.NoError(t, db.First(&order, kept.ID).Error)
	assert.Nil(t, order.DeliveryCrewID)

	var memberships int64
	require.NoError(t, db.Table("user_groups").Where("user_id = ?", expiredCrew.ID).Count(&memberships).Error)
	assert.Zero(t, memberships)

	n, err = PurgeExpiredUsers(context.Background(), db, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func seedDemoRestaurant(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now().UTC()
	customer := testutil.CreateUser(t, db, "customer", models.RoleCustomer)

	production := testutil.CreateCategory(t, db, "mains", "Mains")
	productionItem := testutil.CreateMenuItem(t, db, "Roast", 1500, production)

	demoCategory := testutil.CreateCategory(t, db, "demo-mains", "Demo mains")
	demoItem := testutil.CreateMenuItem(t, db, "Demo roast", 1000, demoCategory)
	require.NoError(t, db.Model(&models.Category{}).Where("id = ?", demoCategory.ID).Update("is_demo", true).Error)
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", demoItem.ID).Update("is_demo", true).Error)

	demoLine := testutil.AddToCart(t, db, customer, productionItem, 1)
	require.NoError(t, db.Model(demoLine).Update("is_demo", true).Error)
	testutil.AddToCart(t, db, customer, demoItem, 1)

	demoOrder := testutil.CreateOrder(t, db, customer, models.Today(now), demoItem)
	require.NoError(t, db.Model(demoOrder).Update("is_demo", true).Error)
	testutil.CreateOrder(t, db, customer, models.Today(now), productionItem, demoItem)
}

func TestPurgeRestaurantData_DryRun(t *testing.T) {
	db := testutil.SetupDB(t)
	seedDemoRestaurant(t, db)

	var out bytes.Buffer
	counts, err := PurgeRestaurantData(context.Background(), db, true, &out)
	require.NoError(t, err)

	assert.Equal(t, PurgeCounts{Orders: 1, CartLines: 1, MenuItems: 1, Categories: 1}, counts)
	assert.Equal(t, "Starting demo purge (Orders -> Carts -> MenuItems -> Categories)...\n"+
		"[DRY] Orders: 1 would be deleted\n"+
		"[DRY] Cart lines: 1 would be deleted\n"+
		"[DRY] MenuItems: 1 would be deleted\n"+
		"[DRY] Categories: 1 would be deleted\n"+
		"Demo purge complete.\n", out.String())

	assert.EqualValues(t, 2, count(t, db, &models.Order{}))
	assert.EqualValues(t, 2, count(t, db, &models.MenuItem{}))
}

func TestPurgeRestaurantData(t *testing.T) {
	db := testutil.SetupDB(t)
	seedDemoRestaurant(t, db)

	var out bytes.Buffer
	_, err := PurgeRestaurantData(context.Background(), db, false, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Orders deleted: 1\n")
	assert.Contains(t, out.String(), "Categories deleted: 1\n")

	assert.EqualValues(t, 1, count(t, db, &models.Order{}))
	assert.EqualValues(t, 1, count(t, db, &models.MenuItem{}))
	assert.EqualValues(t, 1, count(t, db, &models.Category{}))
	assert.Zero(t, count(t, db, &models.Cart{}), "the demo line and the line holding the demo item are gone")

	var lines []models.OrderItem
	require.NoError(t, db.Order("id").Find(&lines).Error)
	require.Len(t, lines, 2)
	assert.NotNil(t, lines[0].MenuItemID)
	assert.Nil(t, lines[1].MenuItemID, "history keeps the demo item's title without the reference")
	assert.Equal(t, "Demo roast", lines[1].ItemTitle)
}

func TestRunJanitor_StopsOnCancel(t *testing.T) {
	db := testutil.SetupDB(t)
	testutil.CreateUser(t, db, "demo_gone", models.RoleCustomer, testutil.AsDemo(time.Now().UTC().Add(-time.Minute)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunJanitor(ctx, db, 10*time.Millisecond, logging.Discard()) }()

	require.Eventually(t, func() bool {
		var n int64
		db.Model(&models.User{}).Count(&n)
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
