// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"restaurant-api/config"
	"restaurant-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the password of every user created by CreateUser
const Password = "s3cret-pass"

// SetupDB opens a private in-memory SQLite database, migrates it and installs
// it, together with default settings, as the package globals.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	prevDB, prevSettings := config.DB, config.Settings
	config.DB = db
	config.Settings = config.Default()
	config.Settings.Throttle.Enabled = false
	t.Cleanup(func() {
		config.DB, config.Settings = prevDB, prevSettings
		_ = sqlDB.Close()
	})
	return db
}

// UserOption adjusts a user before it is saved
type UserOption func(*models.User)

// AsDemo marks the user as a demo account expiring at expiresAt
func AsDemo(expiresAt time.Time) UserOption {
	return func(u *models.User) {
		u.IsDemo = true
		u.DemoExpiresAt = &expiresAt
	}
}

// AsAdmin gives the user staff rights
func AsAdmin() UserOption {
	return func(u *models.User) { u.IsStaff = true }
}

// CreateUser saves a user in the group for role, with Password as password.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.UserRole, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(user)
	}
	if name := role.GroupName(); name != "" {
		var group models.Group
		require.NoError(t, db.Where("name = ?", name).First(&group).Error)
		user.Groups = []models.Group{group}
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory saves a category
func CreateCategory(t *testing.T, db *gorm.DB, slug, title string) *models.Category {
	t.Helper()
	category := &models.Category{Slug: slug, Title: title}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateMenuItem saves a menu item priced in hundredths
func CreateMenuItem(t *testing.T, db *gorm.DB, title string, price models.Money, category *models.Category) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Title: title, Price: price, CategoryID: category.ID}
	require.NoError(t, db.Omit("Category").Create(item).Error)
	item.Category = *category
	return item
}

// AddToCart saves a cart line for user
func AddToCart(t *testing.T, db *gorm.DB, user *models.User, item *models.MenuItem, qty int) *models.Cart {
	t.Helper()
	line := &models.Cart{
		UserID:     user.ID,
		MenuItemID: item.ID,
		Quantity:   qty,
		UnitPrice:  item.Price,
		Price:      item.Price.Times(qty),
	}
	require.NoError(t, db.Omit("User", "MenuItem").Create(line).Error)
	return line
}

// CreateOrder saves an order for user with one item line per menu item
func CreateOrder(t *testing.T, db *gorm.DB, user *models.User, date models.Date, items ...*models.MenuItem) *models.Order {
	t.Helper()
	order := &models.Order{UserID: user.ID, Date: date}
	for _, item := range items {
		id := item.ID
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: &id,
			ItemTitle:  item.Title,
			Quantity:   1,
			UnitPrice:  item.Price,
			Price:      item.Price,
		})
		order.Total += item.Price
	}
	require.NoError(t, db.Omit("User", "DeliveryCrew").Create(order).Error)
	return order
}
