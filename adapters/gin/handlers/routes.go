package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/open-rails/vipkit/adapters/ginutil"
	"github.com/open-rails/vipkit/core"
)

// RegisterAdminRoutes mounts the admin VIP endpoints under /admin/vip.
// adminSecret signs the HS256 bearer tokens accepted by the group.
func RegisterAdminRoutes(r gin.IRouter, svc *core.Service, rl ginutil.RateLimiter, load ConfigLoader, adminSecret []byte) {
	g := r.Group("/admin/vip", ginutil.AdminAuth(adminSecret))
	g.POST("/grants", HandleAdminVIPGrantPOST(svc, rl))
	g.DELETE("/grants/:identifier", HandleAdminVIPRevokeDELETE(svc, rl))
	g.POST("/config/reload", HandleAdminVIPConfigReloadPOST(svc, rl, load))
	g.GET("/status/:slot", HandleAdminVIPStatusGET(svc, rl))
}
