package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
)

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

// noopCache satisfies the cache port without storing anything.
type noopCache struct{}

func (noopCache) Set(ctx context.Context, key string, value interface{}) error { return nil }
func (noopCache) Get(ctx context.Context, key string) (string, error) {
	return "", context.Canceled
}
func (noopCache) Delete(ctx context.Context, key string) error { return nil }

// newTestContext builds an Echo context carrying the locator and a silenced
// logger, the way the middleware chain would.
func newTestContext(t *testing.T, method, target, body string, locator *appcontext.RepoLocator) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = NewRequestValidator()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx := appcontext.SetLogger(req.Context(), logger)
	ctx = appcontext.SetRepoLocator(ctx, locator)
	c.SetRequest(req.WithContext(ctx))

	return c, rec
}

func setParam(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d (body: %s)", want, rec.Code, rec.Body.String())
	}
}
