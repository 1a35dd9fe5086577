package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"
	redistrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/redis/go-redis.v9"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/infrastructure/database"
)

func main() {
	logger := logging.NewLogger()

	tracer.Start(
		tracer.WithEnv(os.Getenv("DD_ENV")),
		tracer.WithService(os.Getenv("DD_SERVICE")),
		tracer.WithServiceVersion(os.Getenv("DD_VERSION")),
	)
	defer tracer.Stop()

	err := profiler.Start(
		profiler.WithService(os.Getenv("DD_SERVICE")),
		profiler.WithEnv(os.Getenv("DD_ENV")),
		profiler.WithVersion(os.Getenv("DD_VERSION")),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	)
	if err != nil {
		logger.WithError(err).Warn("Failed to start profiler")
	}
	defer profiler.Stop()

	// Initialize DogStatsD client
	statsdClient, err := statsd.New(fmt.Sprintf("%s:%s",
		os.Getenv("DD_AGENT_HOST"),
		"8125"),
		statsd.WithTags([]string{
			"env:" + os.Getenv("DD_ENV"),
			"service:" + os.Getenv("DD_SERVICE"),
		}),
	)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize StatsD client")
		os.Exit(1)
	}
	defer statsdClient.Close()

	// Initialize MySQL with tracing
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		os.Getenv("MYSQL_USER"),
		os.Getenv("MYSQL_PASSWORD"),
		os.Getenv("MYSQL_HOST"),
		os.Getenv("MYSQL_PORT"),
		os.Getenv("MYSQL_DATABASE"),
	)
	db, err := sqltrace.Open("mysql", dsn, sqltrace.WithServiceName("mysql"))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MySQL")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.WithError(err).Error("Failed to ping MySQL")
		os.Exit(1)
	}
	logger.Info("Successfully connected to MySQL")

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.WithError(err).Error("Failed to migrate schema")
		os.Exit(1)
	}

	// Initialize Redis with tracing
	redisClient := redistrace.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s",
			os.Getenv("REDIS_HOST"),
			os.Getenv("REDIS_PORT"),
		),
	}, redistrace.WithServiceName("redis"))

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	logger.Info("Successfully connected to Redis")

	// Setup repositories and router
	repoLocator := SetupRepositories(db, redisClient, logger)
	e := SetupRouter(logger, repoLocator, statsdClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		logger.WithField("port", port).Info("Starting server")
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server failed to start")
			os.Exit(1)
		}
	}()

	// Drain in-flight requests before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	logger.Info("Server stopped")
}
