package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"restaurant-api/config"
	"restaurant-api/demo"
	"restaurant-api/middleware"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
)

const msgInvalidRefresh = "Invalid or expired token."

func invalidRoleMessage() string {
	names := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		names = append(names, string(r))
	}
	return fmt.Sprintf("Invalid role. Use role=%s.", strings.Join(names, "|"))
}

// DemoLogin creates a temporary account for the requested role and returns its tokens
func DemoLogin(c *gin.Context) {
	if !demoMode() {
		respondError(c, http.StatusForbidden, middleware.MsgDemoModeDisabled)
		return
	}
	role, ok := models.ParseRole(c.Param("role"))
	if !ok {
		respondError(c, http.StatusBadRequest, invalidRoleMessage())
		return
	}

	ttlHours := config.Settings.Demo.UserTTLHours
	user, err := demo.CreateUser(c.Request.Context(), config.DB, role, config.Settings.Demo.UserTTL(), time.Now())
	if err != nil {
		respondServerError(c, "create demo user", err)
		return
	}
	pair, err := middleware.GenerateTokenPair(user)
	if err != nil {
		respondServerError(c, "issue demo tokens", err)
		return
	}
	middleware.Logger(c).Info("demo user created", "username", user.Username, "role", role)

	c.JSON(http.StatusCreated, gin.H{
		"detail": fmt.Sprintf("Temporary '%s' account created. Expires in %dh.", role, ttlHours),
		"user": gin.H{
			"username":   user.Username,
			"role":       role,
			"expires_at": user.DemoExpiresAt.UTC().Format(time.RFC3339Nano),
		},
		"auth": pair,
	})
}

// DemoMe describes the caller's demo account and the time it has left
func DemoMe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	remaining := demo.Remaining(user, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"username":              user.Username,
		"is_demo":               user.IsDemo,
		"expires_at":            user.DemoExpiresAt.UTC().Format(time.RFC3339Nano),
		"role":                  user.Role(),
		"ttl_seconds_remaining": int64(remaining / time.Second),
		"ttl_hint":              demo.TTLHint(remaining),
	})
}

// DemoRefreshToken rotates a refresh token for a demo account that is still active
func DemoRefreshToken(c *gin.Context) {
	var req RefreshRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}
	claims, user, ok := loadRefreshToken(c, *req.Refresh)
	if !ok {
		return
	}
	if !user.DemoActive(time.Now()) {
		respondError(c, http.StatusBadRequest, middleware.MsgDemoSessionExpired)
		return
	}
	rotateRefreshToken(c, claims, user)
}

// DemoLogout blacklists the given refresh token
func DemoLogout(c *gin.Context) {
	var req RefreshRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}
	claims, err := middleware.ParseToken(strings.TrimSpace(*req.Refresh), middleware.TokenRefresh)
	if err != nil {
		respondFieldError(c, "refresh", msgInvalidRefresh)
		return
	}
	blacklisted, err := isBlacklisted(claims.ID)
	if err != nil {
		respondServerError(c, "check token blacklist", err)
		return
	}
	owner, err := middleware.LoadUser(config.DB, claims.UserUUID)
	if blacklisted || err != nil {
		respondFieldError(c, "refresh", msgInvalidRefresh)
		return
	}
	if err := blacklistToken(claims, owner.ID); err != nil {
		respondServerError(c, "blacklist refresh token", err)
		return
	}
	respond(c, http.StatusOK, "Demo user logged out.", nil)
}
