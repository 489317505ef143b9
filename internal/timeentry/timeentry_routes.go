package timeentry

import (
	"github.com/boissonnick/contractoros/internal/middleware"
	"github.com/boissonnick/contractoros/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	entries := r.Group("/time-entries")
	entries.Use(middleware.AuthMiddleware())
	entries.Use(middleware.RateLimitByUser(rate.Limit(20), 40))
	{
		entries.GET("", middleware.RBACAuthorize(rbacService, "timeentry", "read"), handler.List)
		entries.GET("/:id", middleware.RBACAuthorize(rbacService, "timeentry", "read"), handler.GetById)
		entries.GET("/:id/history", middleware.RBACAuthorize(rbacService, "timeentry", "read"), handler.History)

		if redisClient != nil {
			entries.POST(
				"/clock-in",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "timeentry", "create"),
				handler.ClockIn,
			)
			entries.POST(
				"",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "timeentry", "create"),
				handler.Create,
			)
		} else {
			entries.POST("/clock-in", middleware.RBACAuthorize(rbacService, "timeentry", "create"), handler.ClockIn)
			entries.POST("", middleware.RBACAuthorize(rbacService, "timeentry", "create"), handler.Create)
		}

		entries.POST("/clock-out", middleware.RBACAuthorize(rbacService, "timeentry", "update"), handler.ClockOut)
		entries.POST("/breaks/start", middleware.RBACAuthorize(rbacService, "timeentry", "update"), handler.StartBreak)
		entries.POST("/breaks/end", middleware.RBACAuthorize(rbacService, "timeentry", "update"), handler.EndBreak)

		entries.PUT("/:id", middleware.RBACAuthorize(rbacService, "timeentry", "update"), handler.Update)
		entries.DELETE("/:id", middleware.RBACAuthorize(rbacService, "timeentry", "delete"), handler.Delete)

		entries.POST("/:id/submit", middleware.RBACAuthorize(rbacService, "timeentry", "submit"), handler.Submit)
		entries.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "timeentry", "approve"), handler.Approve)
		entries.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "timeentry", "approve"), handler.Reject)
	}
}
