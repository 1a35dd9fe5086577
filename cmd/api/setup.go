package main

import (
	"database/sql"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
	"github.com/kanehiroyuu/blog-api/internal/infrastructure/database"
	infraredis "github.com/kanehiroyuu/blog-api/internal/infrastructure/redis"
	"github.com/kanehiroyuu/blog-api/internal/infrastructure/tracing"
	"github.com/kanehiroyuu/blog-api/internal/presentation/handler"
	"github.com/kanehiroyuu/blog-api/internal/presentation/router"
)

// SetupRepositories creates and configures all repositories
func SetupRepositories(db *sql.DB, redisClient redis.UniversalClient, logger *logrus.Logger) *appcontext.RepoLocator {
	userRepo := database.NewUserRepository(db, logger)
	postRepo := database.NewPostRepository(db, logger)
	cacheRepoBase := infraredis.NewCacheRepository(redisClient)
	cacheRepo := tracing.NewCacheRepositoryTracer(cacheRepoBase, cacheRepoBase.GetTTL())

	return &appcontext.RepoLocator{
		UserRepo:  userRepo,
		PostRepo:  postRepo,
		CacheRepo: cacheRepo,
	}
}

// SetupRouter creates and configures the application router with all handlers
func SetupRouter(logger *logrus.Logger, repoLocator *appcontext.RepoLocator, statsdClient statsd.ClientInterface) *echo.Echo {
	healthHandler := handler.NewHealthHandler()
	userHandler := handler.NewUserHandler()
	postHandler := handler.NewPostHandler()

	return router.Setup(userHandler, postHandler, healthHandler, logger, repoLocator, statsdClient)
}
