package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/vipkit/adapters/ginutil"
	"github.com/open-rails/vipkit/core"
)

func HandleAdminVIPStatusGET(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		slot, err := strconv.Atoi(c.Param("slot"))
		if err != nil || slot < 0 {
			ginutil.BadRequest(c, "invalid_slot")
			return
		}
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminVIPStatus) {
			ginutil.TooMany(c)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"slot":   slot,
			"is_vip": svc.IsVIP(slot),
			"group":  svc.GroupOf(slot),
		})
	}
}
