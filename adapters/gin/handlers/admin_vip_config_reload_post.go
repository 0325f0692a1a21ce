package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/vipkit/adapters/ginutil"
	"github.com/open-rails/vipkit/core"
	"github.com/open-rails/vipkit/entitlements"
)

// ConfigLoader re-reads the entitlement configuration from its source.
type ConfigLoader func() (*entitlements.Config, error)

func HandleAdminVIPConfigReloadPOST(svc *core.Service, rl ginutil.RateLimiter, load ConfigLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminVIPReload) {
			ginutil.TooMany(c)
			return
		}
		cfg, err := load()
		if err != nil {
			ginutil.ServerErr(c, "failed_to_reload")
			return
		}
		svc.ReloadConfig(cfg)
		c.JSON(http.StatusOK, gin.H{"ok": true, "groups": cfg.GroupNames()})
	}
}
