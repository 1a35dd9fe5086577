package middleware

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware emits one count and one timing per request via DogStatsD,
// tagged with method, route and status.
func MetricsMiddleware(client statsd.ClientInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			startTime := time.Now()
			err := next(c)
			duration := time.Since(startTime)

			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			tags := []string{
				"method:" + c.Request().Method,
				"route:" + c.Path(),
				fmt.Sprintf("status:%d", status),
			}

			// StatsD is fire and forget; a down agent must not affect requests.
			client.Incr("http.request.count", tags, 1)
			client.Timing("http.request.duration", duration, tags, 1)

			return err
		}
	}
}
