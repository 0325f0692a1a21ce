// Package ginutil carries the small shared pieces of the gin admin surface:
// JSON error replies, rate-limit bucket names, and the limiter interface the
// handlers accept.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimiter is satisfied by both the memory and Redis limiters.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// Rate-limit bucket names for the admin endpoints.
const (
	RLAdminVIPGrant  = "admin_vip_grant"
	RLAdminVIPRevoke = "admin_vip_revoke"
	RLAdminVIPReload = "admin_vip_reload"
	RLAdminVIPStatus = "admin_vip_status"
)

func BadRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": code})
}

func Conflict(c *gin.Context, code string) {
	c.JSON(http.StatusConflict, gin.H{"error": code})
}

func ServerErr(c *gin.Context, code string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": code})
}

func TooMany(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}

// AllowNamed checks the limiter for the client IP. A nil limiter or a
// limiter error allows the request; limiting is protective, not load-bearing.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	ok, err := rl.AllowNamed(bucket, c.ClientIP())
	if err != nil {
		return true
	}
	return ok
}
