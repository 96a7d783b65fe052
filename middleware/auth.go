package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"restaurant-api/config"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token types carried in the token_type claim
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Lifetime caps for demo accounts
const (
	DemoRefreshMax = time.Hour
	DemoAccessMax  = 15 * time.Minute
)

const userKey = "user"

var (
	ErrTokenInvalid   = errors.New("token is invalid or expired")
	ErrTokenWrongType = errors.New("token has wrong type")
)

type Claims struct {
	UserUUID  string `json:"user_uuid"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the body returned by every endpoint that issues tokens
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// tokenLifetimes caps demo accounts so no token outlives the account.
func tokenLifetimes(user *models.User, now time.Time) (access, refresh time.Duration) {
	access, refresh = config.Settings.JWT.AccessTTL, config.Settings.JWT.RefreshTTL
	if !user.IsDemo || user.DemoExpiresAt == nil {
		return access, refresh
	}
	remaining := user.DemoExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return min(access, DemoAccessMax, remaining), min(refresh, DemoRefreshMax, remaining)
}

func signToken(user *models.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserUUID:  user.UUID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Settings.JWT.Secret))
}

// GenerateTokenPair creates a signed access/refresh pair for a user
func GenerateTokenPair(user *models.User) (TokenPair, error) {
	now := time.Now()
	accessTTL, refreshTTL := tokenLifetimes(user, now)

	refresh, err := signToken(user, TokenRefresh, now, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := signToken(user, TokenAccess, now, accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Refresh: refresh, Access: access}, nil
}

// ParseToken validates signature, expiry (with leeway) and, when tokenType is set, the token type.
func ParseToken(tokenStr, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.Settings.JWT.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(config.Settings.JWT.Leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.UserUUID == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	if tokenType != "" && claims.TokenType != tokenType {
		return nil, ErrTokenWrongType
	}
	return claims, nil
}

// LoadUser fetches the active user a token belongs to, with groups preloaded
func LoadUser(db *gorm.DB, userUUID string) (*models.User, error) {
	var user models.User
	if err := db.Preload("Groups").Where("uuid = ?", userUUID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AuthRequired validates the access token and injects the user into context
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header must contain two space-delimited values"})
			return
		}

		claims, err := ParseToken(strings.TrimSpace(tokenStr), TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}

		user, err := LoadUser(config.DB, claims.UserUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found", "code": "user_not_found"})
				return
			}
			Logger(c).Error("load token user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User is inactive", "code": "user_inactive"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside AuthRequired
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	return CurrentUser(c).ID
}
