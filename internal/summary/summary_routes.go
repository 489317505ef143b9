package summary

import (
	"github.com/boissonnick/contractoros/internal/middleware"
	"github.com/boissonnick/contractoros/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	summaries := r.Group("/summaries")
	summaries.Use(middleware.AuthMiddleware())
	{
		summaries.GET("/daily", middleware.RBACAuthorize(rbacService, "summary", "read"), handler.Daily)
		summaries.GET("/weekly", middleware.RBACAuthorize(rbacService, "summary", "read"), handler.Weekly)
	}
}
