package middleware

import (
	"net/http"
	"time"

	"restaurant-api/config"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
)

// Demo session messages
const (
	MsgNotDemoUser        = "You must be a demo user to perform this action."
	MsgDemoMissingExpiry  = "Demo account missing expiration info."
	MsgDemoExpired        = "Your demo account has expired. Please create a new demo user."
	MsgDemoModeDisabled   = "Demo mode is disabled."
	MsgDemoSessionExpired = "Demo session expired."
)

// CheckActiveDemo returns the refusal message for a user that is not an active demo account.
func CheckActiveDemo(user *models.User, now time.Time) (string, bool) {
	switch {
	case !user.IsDemo:
		return MsgNotDemoUser, false
	case user.DemoExpiresAt == nil:
		return MsgDemoMissingExpiry, false
	case !user.DemoExpiresAt.After(now):
		return MsgDemoExpired, false
	}
	return "", true
}

// ActiveDemoRequired only admits demo users whose account has not expired.
func ActiveDemoRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if msg, ok := CheckActiveDemo(CurrentUser(c), time.Now()); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": msg})
			return
		}
		c.Next()
	}
}

// DemoGuard applies ActiveDemoRequired to demo users while demo mode is on.
// Regular accounts pass through.
func DemoGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if config.Settings.Demo.Enabled && user != nil && user.IsDemo {
			if msg, ok := CheckActiveDemo(user, time.Now()); !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": msg})
				return
			}
		}
		c.Next()
	}
}
