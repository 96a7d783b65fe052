// Package demo manages temporary demo accounts and the rows they create.
package demo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-api/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const emailDomain = "demo-invalid.com"

// CreateUser creates a demo account for role that expires after ttl. The
// password is random and never returned; demo users authenticate with the
// tokens issued at creation.
func CreateUser(ctx context.Context, db *gorm.DB, role models.UserRole, ttl time.Duration, now time.Time) (*models.User, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	username := "demo_" + suffix

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	expiresAt := now.UTC().Add(ttl)
	user := &models.User{
		Username:      username,
		Email:         username + "@" + emailDomain,
		PasswordHash:  string(hash),
		IsActive:      true,
		IsDemo:        true,
		DemoExpiresAt: &expiresAt,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if name := role.GroupName(); name != "" {
			group := models.Group{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&group).Error; err != nil {
				return err
			}
			user.Groups = []models.Group{group}
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create demo %s: %w", role, err)
	}
	return user, nil
}

// TTLHint renders the time left on a demo account, e.g. "~45m left" or "~2h 5m left".
func TTLHint(remaining time.Duration) string {
	secs := int64(remaining / time.Second)
	if secs <= 0 {
		return "expired"
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("~%dm left", mins)
	}
	hours, rest := mins/60, mins%60
	if rest == 0 {
		return fmt.Sprintf("~%dh left", hours)
	}
	return fmt.Sprintf("~%dh %dm left", hours, rest)
}

// Remaining is the whole seconds a demo account has left, never negative
func Remaining(user *models.User, now time.Time) time.Duration {
	if user.DemoExpiresAt == nil {
		return 0
	}
	left := user.DemoExpiresAt.Sub(now).Truncate(time.Second)
	if left < 0 {
		return 0
	}
	return left
}
