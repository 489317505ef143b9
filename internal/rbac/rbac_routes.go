package rbac

import (
	"github.com/boissonnick/contractoros/internal/domain"
	"github.com/boissonnick/contractoros/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware())
	{
		group.POST("/enforce", handler.Enforce)

		// Gated on the token's role claim rather than a casbin policy so the
		// listing stays reachable while an org's policy is being repaired.
		group.GET(
			"/roles",
			middleware.RoleMiddleware(domain.RoleManager, domain.RoleOwner, domain.RoleAdmin),
			handler.ListRoles,
		)
	}
}
