// Package context carries per-request dependencies through the standard
// context.Context: the structured logger and the repository locator the
// handlers use to assemble their interactors.
package context

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kanehiroyuu/blog-api/internal/usecase/port"
)

type loggerKey struct{}
type locatorKey struct{}

// RepoLocator bundles the repository ports wired at startup. Handlers read it
// from the request context and pick the repositories their interactor needs.
type RepoLocator struct {
	UserRepo  port.UserRepository
	PostRepo  port.PostRepository
	CacheRepo port.CacheRepository
}

func (r *RepoLocator) RUser() port.UserRepository   { return r.UserRepo }
func (r *RepoLocator) RPost() port.PostRepository   { return r.PostRepo }
func (r *RepoLocator) RCache() port.CacheRepository { return r.CacheRepo }

func SetLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the request logger. A context that never passed through
// the logger middleware gets a fresh default logger rather than a nil deref.
func GetLogger(ctx context.Context) *logrus.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*logrus.Logger); ok {
		return logger
	}
	return logrus.StandardLogger()
}

func SetRepoLocator(ctx context.Context, locator *RepoLocator) context.Context {
	return context.WithValue(ctx, locatorKey{}, locator)
}

// GetRepoLocator returns the locator installed by the middleware, or nil.
func GetRepoLocator(ctx context.Context) *RepoLocator {
	locator, _ := ctx.Value(locatorKey{}).(*RepoLocator)
	return locator
}
