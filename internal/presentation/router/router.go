package router

import (
	"os"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	echotrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
	"github.com/kanehiroyuu/blog-api/internal/presentation/handler"
	"github.com/kanehiroyuu/blog-api/internal/presentation/middleware"
)

// Setup configures the Echo instance: tracing, middleware chain and routes.
func Setup(
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	healthHandler *handler.HealthHandler,
	logger *logrus.Logger,
	repoLocator *appcontext.RepoLocator,
	statsdClient statsd.ClientInterface,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	e.Use(echotrace.Middleware(echotrace.WithServiceName(os.Getenv("DD_SERVICE"))))
	e.Use(middleware.LoggerMiddleware(logger))
	e.Use(middleware.RepoLocatorMiddleware(repoLocator))
	e.Use(middleware.RecoveryMiddleware())
	e.Use(middleware.CORSMiddleware())
	e.Use(middleware.MetricsMiddleware(statsdClient))

	// Health endpoints
	e.GET("/", healthHandler.HealthCheck)
	e.GET("/health", healthHandler.HealthCheck)

	// User endpoints
	e.GET("/users", userHandler.GetAllUsers)
	e.POST("/users", userHandler.CreateUser)
	e.GET("/users/:id", userHandler.GetUser)
	e.PUT("/users/:id", userHandler.UpdateUser)
	e.DELETE("/users/:id", userHandler.DeleteUser)
	e.GET("/users/:id/posts", postHandler.GetUserPosts)

	// Post endpoints
	e.POST("/posts", postHandler.CreatePost)
	e.GET("/posts/:id", postHandler.GetPost)
	e.PUT("/posts/:id", postHandler.UpdatePost)
	e.DELETE("/posts/:id", postHandler.DeletePost)

	return e
}
