package port

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
)

// UserRepository is a port for user persistence. Every write wraps exactly one
// transaction; failures roll back before the call returns.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindAll(ctx context.Context, nameFilter string) ([]*entities.User, error)
	FindByIDWithPosts(ctx context.Context, id int) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) (*entities.User, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// PostRepository is a port for post persistence.
type PostRepository interface {
	Create(ctx context.Context, post *entities.Post) error
	FindByID(ctx context.Context, id int) (*entities.Post, error)
	FindByOwner(ctx context.Context, userID int) ([]*entities.Post, error)
	Update(ctx context.Context, post *entities.Post) (*entities.Post, error)
	Delete(ctx context.Context, id int) (bool, error)
	FindAllOwnersWithPosts(ctx context.Context) ([]*entities.User, error)
}

// CacheRepository is a port for cache operations.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Logger is a port for logger
type Logger = *logrus.Logger
