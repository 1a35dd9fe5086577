package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
	"github.com/kanehiroyuu/blog-api/internal/common/logging"
)

// LoggerMiddleware sets the logger in the request context and emits one
// completion line per request.
func LoggerMiddleware(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := appcontext.SetLogger(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))

			startTime := time.Now()
			err := next(c)
			duration := time.Since(startTime)

			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			logging.LogWithTrace(ctx, logger, "http", "Request completed", logrus.Fields{
				"http.method":      c.Request().Method,
				"http.url":         c.Request().URL.Path,
				"http.status_code": status,
				"http.duration_ms": duration.Milliseconds(),
			})

			return err
		}
	}
}
