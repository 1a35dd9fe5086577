package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/domain"
	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
	infraredis "github.com/kanehiroyuu/blog-api/internal/infrastructure/redis"
	"github.com/kanehiroyuu/blog-api/internal/usecase/port"
)

// UserUseCase implements user business logic
type UserUseCase struct {
	Logger port.Logger
	RUser  port.UserRepository
	RPost  port.PostRepository
	RCache port.CacheRepository
}

// CreateUser creates a new user. A duplicate email rolls back in the
// repository and surfaces as domain.ErrDuplicateEmail.
func (uc *UserUseCase) CreateUser(ctx context.Context, name, email string) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.create_user")
	defer span.Finish()

	span.SetTag("user.name", name)
	span.SetTag("user.email", email)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Creating user", logrus.Fields{
		"user.name":  name,
		"user.email": email,
	})

	user := entities.NewUser(name, email)

	if err := uc.RUser.Create(ctx, user); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to create user in repository", err, nil)
		return nil, err
	}

	span.SetTag("user.id", user.ID)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User created", logrus.Fields{
		"user.id": user.ID,
	})

	return user, nil
}

// GetUser retrieves a user with its posts, trying the projection cache first.
func (uc *UserUseCase) GetUser(ctx context.Context, id int) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	cacheKey := infraredis.UserKey(id)
	cachedData, err := uc.RCache.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var user entities.User
		if err := json.Unmarshal([]byte(cachedData), &user); err == nil {
			span.SetTag("cache.hit", true)
			span.SetTag("data.source", "cache")
			logging.LogWithTrace(ctx, uc.Logger, "usecase", "User found in cache", logrus.Fields{
				"user.id":   user.ID,
				"cache.key": cacheKey,
			})
			return &user, nil
		}
	}

	span.SetTag("cache.hit", false)
	span.SetTag("data.source", "database")

	user, err := uc.RUser.FindByIDWithPosts(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
			logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to get user from repository", err, logrus.Fields{
				"user.id": id,
			})
		}
		return nil, err
	}

	span.SetTag("user.name", user.Name)
	span.SetTag("posts.count", len(user.Posts))

	// Cache failures never fail the read.
	userData, _ := json.Marshal(user)
	if err := uc.RCache.Set(ctx, cacheKey, string(userData)); err != nil {
		span.SetTag("cache.set", false)
		span.SetTag("cache.error", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to set user cache", err, logrus.Fields{
			"cache.key": cacheKey,
		})
	} else {
		span.SetTag("cache.set", true)
	}

	return user, nil
}

// ListUsers retrieves all users. Without a filter the bulk eager load is used
// so every user arrives with its posts in one query; with a name filter the
// plain listing is used and posts stay unloaded.
func (uc *UserUseCase) ListUsers(ctx context.Context, nameFilter string) ([]*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.list_users")
	defer span.Finish()

	span.SetTag("data.source", "database")

	var (
		users []*entities.User
		err   error
	)
	if nameFilter == "" {
		users, err = uc.RPost.FindAllOwnersWithPosts(ctx)
	} else {
		span.SetTag("users.name_filter", nameFilter)
		users, err = uc.RUser.FindAll(ctx, nameFilter)
	}
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to fetch users from repository", err, nil)
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	span.SetTag("users.count", len(users))

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Users fetched", logrus.Fields{
		"users.count": len(users),
	})

	return users, nil
}

// UpdateUser overwrites name and email of an existing user and invalidates
// the cached projection.
func (uc *UserUseCase) UpdateUser(ctx context.Context, id int, name, email string) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.update_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	user := &entities.User{ID: id, Name: name, Email: email}

	updated, err := uc.RUser.Update(ctx, user)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrDuplicateEmail) {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
			logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to update user", err, logrus.Fields{
				"user.id": id,
			})
		}
		return nil, err
	}

	uc.invalidateUserCache(ctx, id)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User updated", logrus.Fields{
		"user.id": id,
	})

	return updated, nil
}

// DeleteUser removes a user; the store cascade removes all of the user's
// posts in the same operation.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id int) (bool, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.delete_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	deleted, err := uc.RUser.Delete(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to delete user", err, logrus.Fields{
			"user.id": id,
		})
		return false, err
	}

	span.SetTag("user.deleted", deleted)

	if deleted {
		uc.invalidateUserCache(ctx, id)
		logging.LogWithTrace(ctx, uc.Logger, "usecase", "User deleted with cascading posts", logrus.Fields{
			"user.id": id,
		})
	}

	return deleted, nil
}

// invalidateUserCache drops the cached projection. Best effort.
func (uc *UserUseCase) invalidateUserCache(ctx context.Context, id int) {
	cacheKey := infraredis.UserKey(id)
	if err := uc.RCache.Delete(ctx, cacheKey); err != nil {
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to invalidate user cache", err, logrus.Fields{
			"cache.key": cacheKey,
		})
	}
}
