package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/vipkit/adapters/ginutil"
	"github.com/open-rails/vipkit/core"
	"github.com/open-rails/vipkit/membership"
)

type grantRequest struct {
	Identifier      string `json:"identifier" binding:"required"`
	Group           string `json:"group" binding:"required"`
	DurationSeconds int64  `json:"duration_seconds"`
}

func HandleAdminVIPGrantPOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req grantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminVIPGrant) {
			ginutil.TooMany(c)
			return
		}
		err := svc.Grant(c.Request.Context(), req.Identifier, req.Group, req.DurationSeconds)
		switch {
		case errors.Is(err, core.ErrUnknownGroup):
			ginutil.BadRequest(c, "unknown_group")
			return
		case errors.Is(err, membership.ErrExists):
			ginutil.Conflict(c, "already_granted")
			return
		case err != nil:
			ginutil.ServerErr(c, "failed_to_grant")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
