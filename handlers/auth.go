package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"restaurant-api/config"
	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/throttle"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoginRequest struct {
	Username *string `json:"username" binding:"required,min=1"`
	Password *string `json:"password" binding:"required,min=1"`
}

type RefreshRequest struct {
	Refresh *string `json:"refresh" binding:"required,min=1"`
}

type VerifyRequest struct {
	Token *string `json:"token" binding:"required,min=1"`
}

type RegisterRequest struct {
	Username *string `json:"username" binding:"required,min=1,max=150"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"required,min=8,max=128"`
}

const (
	msgBadCredentials     = "No active account found with the given credentials"
	msgTokenInvalid       = "Token is invalid or expired"
	msgTokenBlacklisted   = "Token is blacklisted"
	msgRegistrationClosed = "Registration is disabled in demo mode."
)

func respondTokenInvalid(c *gin.Context, detail string) {
	c.JSON(http.StatusUnauthorized, gin.H{"detail": detail, "code": "token_not_valid"})
}

// Login issues a token pair. Each failed attempt for a username doubles the
// cooldown before the next attempt is accepted, up to 30 seconds.
func Login(c *gin.Context) {
	var req LoginRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}
	now := time.Now()

	var attempt models.LoginAttempt
	err := config.DB.Where("username = ?", *req.Username).First(&attempt).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respondServerError(c, "load login attempts", err)
		return
	}
	if attempt.CooldownUntil != nil && attempt.CooldownUntil.After(now) {
		wait := int(math.Ceil(attempt.CooldownUntil.Sub(now).Seconds()))
		c.Header("Retry-After", strconv.Itoa(wait))
		respondError(c, http.StatusTooManyRequests,
			fmt.Sprintf("Too many failed login attempts. Try again in %d seconds.", wait))
		return
	}

	var user models.User
	err = config.DB.Preload("Groups").Where("username = ? AND is_active = ?", *req.Username, true).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*req.Password))
	}
	if err != nil {
		if recErr := recordFailedLogin(*req.Username, attempt.FailCount+1, now); recErr != nil {
			respondServerError(c, "record failed login", recErr)
			return
		}
		middleware.Logger(c).Warn("login failed", "username", *req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msgBadCredentials})
		return
	}

	if err := config.DB.Where("username = ?", user.Username).Delete(&models.LoginAttempt{}).Error; err != nil {
		respondServerError(c, "reset login attempts", err)
		return
	}
	pair, err := middleware.GenerateTokenPair(&user)
	if err != nil {
		respondServerError(c, "issue tokens", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func recordFailedLogin(username string, failCount int, now time.Time) error {
	until := now.Add(throttle.LoginCooldown(failCount))
	attempt := models.LoginAttempt{Username: username, FailCount: failCount, CooldownUntil: &until}
	return config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"fail_count", "cooldown_until", "updated_at"}),
	}).Create(&attempt).Error
}

// RefreshToken rotates a refresh token: the old one is blacklisted and a new pair issued.
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}
	claims, user, ok := loadRefreshToken(c, *req.Refresh)
	if !ok {
		return
	}
	rotateRefreshToken(c, claims, user)
}

// loadRefreshToken validates a refresh token and loads its active, unexpired owner.
func loadRefreshToken(c *gin.Context, raw string) (*middleware.Claims, *models.User, bool) {
	claims, err := middleware.ParseToken(raw, middleware.TokenRefresh)
	if err != nil {
		respondTokenInvalid(c, msgTokenInvalid)
		return nil, nil, false
	}
	blacklisted, err := isBlacklisted(claims.ID)
	if err != nil {
		respondServerError(c, "check token blacklist", err)
		return nil, nil, false
	}
	if blacklisted {
		respondTokenInvalid(c, msgTokenBlacklisted)
		return nil, nil, false
	}
	user, err := middleware.LoadUser(config.DB, claims.UserUUID)
	if err != nil || !user.IsActive {
		respondTokenInvalid(c, msgTokenInvalid)
		return nil, nil, false
	}
	return claims, user, true
}

func rotateRefreshToken(c *gin.Context, claims *middleware.Claims, user *models.User) {
	if err := blacklistToken(claims, user.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondTokenInvalid(c, msgTokenBlacklisted)
			return
		}
		respondServerError(c, "blacklist refresh token", err)
		return
	}
	pair, err := middleware.GenerateTokenPair(user)
	if err != nil {
		respondServerError(c, "issue tokens", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func isBlacklisted(jti string) (bool, error) {
	var count int64
	err := config.DB.Model(&models.BlacklistedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

func blacklistToken(claims *middleware.Claims, userID uint) error {
	entry := models.BlacklistedToken{JTI: claims.ID, UserID: userID}
	if claims.ExpiresAt != nil {
		entry.ExpiresAt = claims.ExpiresAt.Time
	}
	return config.DB.Create(&entry).Error
}

// VerifyToken answers 200 with an empty object for any valid, non-blacklisted token
func VerifyToken(c *gin.Context) {
	var req VerifyRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}
	claims, err := middleware.ParseToken(*req.Token, "")
	if err != nil {
		respondTokenInvalid(c, msgTokenInvalid)
		return
	}
	if claims.TokenType == middleware.TokenRefresh {
		blacklisted, err := isBlacklisted(claims.ID)
		if err != nil {
			respondServerError(c, "check token blacklist", err)
			return
		}
		if blacklisted {
			respondTokenInvalid(c, msgTokenBlacklisted)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Me returns the authenticated user
func Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, userRef{ID: user.ID, Username: user.Username})
}

// Register creates a customer account. Closed while demo mode is on.
func Register(c *gin.Context) {
	if demoMode() {
		respondError(c, http.StatusForbidden, msgRegistrationClosed)
		return
	}
	var req RegisterRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}

	var taken int64
	if err := config.DB.Model(&models.User{}).Where("username = ?", *req.Username).Count(&taken).Error; err != nil {
		respondServerError(c, "check username", err)
		return
	}
	if taken > 0 {
		respondFieldError(c, "username", "A user with that username already exists.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondServerError(c, "hash password", err)
		return
	}
	user := models.User{Username: *req.Username, PasswordHash: string(hash), IsActive: true}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if err := config.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondFieldError(c, "username", "A user with that username already exists.")
			return
		}
		respondServerError(c, "create user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username, "email": user.Email})
}
