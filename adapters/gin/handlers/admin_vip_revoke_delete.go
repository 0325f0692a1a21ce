package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/vipkit/adapters/ginutil"
	"github.com/open-rails/vipkit/core"
)

func HandleAdminVIPRevokeDELETE(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("identifier")
		if id == "" {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminVIPRevoke) {
			ginutil.TooMany(c)
			return
		}
		if err := svc.Revoke(c.Request.Context(), id); err != nil {
			ginutil.ServerErr(c, "failed_to_revoke")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
