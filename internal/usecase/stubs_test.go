package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubUserRepo delegates to function fields so each test wires only the
// methods it exercises.
type stubUserRepo struct {
	create            func(ctx context.Context, user *entities.User) error
	findAll           func(ctx context.Context, nameFilter string) ([]*entities.User, error)
	findByIDWithPosts func(ctx context.Context, id int) (*entities.User, error)
	update            func(ctx context.Context, user *entities.User) (*entities.User, error)
	delete            func(ctx context.Context, id int) (bool, error)
}

func (s *stubUserRepo) Create(ctx context.Context, user *entities.User) error {
	return s.create(ctx, user)
}

func (s *stubUserRepo) FindAll(ctx context.Context, nameFilter string) ([]*entities.User, error) {
	return s.findAll(ctx, nameFilter)
}

func (s *stubUserRepo) FindByIDWithPosts(ctx context.Context, id int) (*entities.User, error) {
	return s.findByIDWithPosts(ctx, id)
}

func (s *stubUserRepo) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	return s.update(ctx, user)
}

func (s *stubUserRepo) Delete(ctx context.Context, id int) (bool, error) {
	return s.delete(ctx, id)
}

type stubPostRepo struct {
	create                 func(ctx context.Context, post *entities.Post) error
	findByID               func(ctx context.Context, id int) (*entities.Post, error)
	findByOwner            func(ctx context.Context, userID int) ([]*entities.Post, error)
	update                 func(ctx context.Context, post *entities.Post) (*entities.Post, error)
	delete                 func(ctx context.Context, id int) (bool, error)
	findAllOwnersWithPosts func(ctx context.Context) ([]*entities.User, error)
}

func (s *stubPostRepo) Create(ctx context.Context, post *entities.Post) error {
	return s.create(ctx, post)
}

func (s *stubPostRepo) FindByID(ctx context.Context, id int) (*entities.Post, error) {
	return s.findByID(ctx, id)
}

func (s *stubPostRepo) FindByOwner(ctx context.Context, userID int) ([]*entities.Post, error) {
	return s.findByOwner(ctx, userID)
}

func (s *stubPostRepo) Update(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	return s.update(ctx, post)
}

func (s *stubPostRepo) Delete(ctx context.Context, id int) (bool, error) {
	return s.delete(ctx, id)
}

func (s *stubPostRepo) FindAllOwnersWithPosts(ctx context.Context) ([]*entities.User, error) {
	return s.findAllOwnersWithPosts(ctx)
}

// memoryCache is an in-memory CacheRepository recording deletes.
type memoryCache struct {
	data    map[string]string
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("unexpected cache value type")
	}
	c.data[key] = s
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := c.data[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}
