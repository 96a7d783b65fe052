package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"restaurant-api/config"
	"restaurant-api/throttle"

	"github.com/gin-gonic/gin"
)

// Throttle rate limits requests under scope. With an empty or unconfigured scope,
// authenticated callers count against "user" and everyone else against "anon".
// Store failures are logged and the request is let through.
func Throttle(limiter *throttle.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !config.Settings.Throttle.Enabled {
			c.Next()
			return
		}

		bucket, ident, fallback := scope, "ip:"+c.ClientIP(), "anon"
		if user := CurrentUser(c); user != nil {
			ident, fallback = "user:"+user.UUID, "user"
		}
		if bucket == "" || !limiter.Has(bucket) {
			bucket = fallback
		}

		allowed, wait, err := limiter.Allow(c.Request.Context(), bucket, ident)
		if err != nil {
			Logger(c).Warn("throttle store unavailable", "scope", bucket, "error", err)
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt.Sprintf("Request was throttled. Expected available in %d seconds.", seconds),
			})
			return
		}
		c.Next()
	}
}
