package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/presentation/response"
)

// RecoveryMiddleware recovers from panics, records the full error and stack
// in the operational log, and returns a fixed 500 body. Internal details never
// reach the client.
func RecoveryMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					ctx := c.Request().Context()
					logger := appcontext.GetLogger(ctx)

					panicErr := fmt.Errorf("panic recovered: %v", r)
					logFields := map[string]interface{}{
						"panic.value":       fmt.Sprintf("%v", r),
						"panic.stack_trace": string(debug.Stack()),
						"http.method":       c.Request().Method,
						"http.url":          c.Request().URL.Path,
					}

					if span, ok := tracer.SpanFromContext(ctx); ok {
						span.SetTag("error", true)
						span.SetTag("error.type", "panic")
						span.SetTag("error.msg", fmt.Sprintf("%v", r))
					}

					logging.LogErrorWithTrace(ctx, logger, "middleware", "Panic recovered", panicErr, logFields)

					c.JSON(http.StatusInternalServerError, response.ErrorResponse{
						Detail: "Internal Server Error",
					})
				}
			}()

			return next(c)
		}
	}
}
