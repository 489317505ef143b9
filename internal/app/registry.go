package app

import (
	"database/sql"

	"github.com/boissonnick/contractoros/internal/audit"
	"github.com/boissonnick/contractoros/internal/messaging/kafka"
	"github.com/boissonnick/contractoros/internal/rbac"
	"github.com/boissonnick/contractoros/internal/rbac/infra"
	"github.com/boissonnick/contractoros/internal/shared/clock"
	"github.com/boissonnick/contractoros/internal/summary"
	"github.com/boissonnick/contractoros/internal/timeentry"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	entryRepo := timeentry.NewRepository(gormDB)
	editRepo := audit.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	watcher := timeentry.NewRedisWatcher(rdb, entryRepo)
	entryService := timeentry.NewServiceWithOutbox(
		db,
		entryRepo,
		editRepo,
		rbacService,
		clock.System{},
		outboxRepo,
		watcher,
	)
	summaryService := summary.NewService(entryRepo, rbacService, rdb)

	// --- Handlers ---
	entryHandler := timeentry.NewHandlerWithRedis(entryService, rdb)
	summaryHandler := summary.NewHandler(summaryService)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		timeentry.RegisterRoutes(api, entryHandler, rbacService, rdb)
		summary.RegisterRoutes(api, summaryHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}
