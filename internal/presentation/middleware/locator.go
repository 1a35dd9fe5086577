package middleware

import (
	"github.com/labstack/echo/v4"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
)

// RepoLocatorMiddleware installs the repository locator into every request
// context. Handlers build their interactors from it per request.
func RepoLocatorMiddleware(locator *appcontext.RepoLocator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(appcontext.SetRepoLocator(req.Context(), locator)))
			return next(c)
		}
	}
}
