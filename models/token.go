package models

import "time"

// BlacklistedToken records a refresh token that may no longer be used
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"`
	JTI       string    `gorm:"column:jti;uniqueIndex;size:64;not null"`
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// LoginAttempt tracks consecutive failed logins per username
type LoginAttempt struct {
	Username      string `gorm:"primaryKey;size:150"`
	FailCount     int    `gorm:"not null;default:0"`
	CooldownUntil *time.Time
	UpdatedAt     time.Time
}

// All lists every model for migration
func All() []any {
	return []any{
		&Group{},
		&User{},
		&Category{},
		&MenuItem{},
		&Cart{},
		&Order{},
		&OrderItem{},
		&BlacklistedToken{},
		&LoginAttempt{},
	}
}
