package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// CORSMiddleware creates a CORS middleware with the default config
func CORSMiddleware() echo.MiddlewareFunc {
	return echomiddleware.CORSWithConfig(echomiddleware.DefaultCORSConfig)
}
