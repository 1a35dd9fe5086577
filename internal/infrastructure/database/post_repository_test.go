package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/kanehiroyuu/blog-api/internal/domain"
	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
)

func newMockPostRepo(t *testing.T) (*PostRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPostRepository(db, logger), mock, func() { db.Close() }
}

func TestPostRepository_Create_AssignsID(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").
		WithArgs("Hello World", "hi", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	post := entities.NewPost("Hello World", "hi", 1)
	if err := repo.Create(context.Background(), post); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if post.ID != 1 || !post.Persisted() {
		t.Fatalf("expected assigned ID, got %+v", post)
	}
}

func TestPostRepository_Create_MissingOwnerRollsBack(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").
		WithArgs("Hello", "hi", 99, sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), entities.NewPost("Hello", "hi", 99))
	if !errors.Is(err, domain.ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostRepository_FindByID(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"id", "title", "content", "user_id", "created_at"}).
		AddRow(1, "Hello World", "hi", 1, time.Now())
	mock.ExpectQuery("SELECT id, title, content, user_id, created_at FROM posts WHERE id").
		WithArgs(1).
		WillReturnRows(rows)

	post, err := repo.FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if post.Title != "Hello World" || post.UserID != 1 {
		t.Fatalf("unexpected post: %+v", post)
	}
}

func TestPostRepository_FindByID_NotFound(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT id, title, content, user_id, created_at FROM posts WHERE id").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "user_id", "created_at"}))

	_, err := repo.FindByID(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_FindByOwner_EmptyIsNotAnError(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT id, title, content, user_id, created_at FROM posts WHERE user_id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "user_id", "created_at"}))

	posts, err := repo.FindByOwner(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByOwner returned error: %v", err)
	}
	if posts == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}
}

func TestPostRepository_Update_KeepsOwner(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM posts WHERE id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec("UPDATE posts SET title").
		WithArgs("New title", "new content", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), &entities.Post{ID: 1, Title: "New title", Content: "new content"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.UserID != 7 {
		t.Fatalf("update must preserve the owner, got user_id=%d", updated.UserID)
	}
}

func TestPostRepository_Update_NotFound(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM posts WHERE id").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), &entities.Post{ID: 42, Title: "x y z", Content: "c"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_Delete(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM posts WHERE id").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 1)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deleted=true")
	}
}

func TestPostRepository_FindAllOwnersWithPosts_GroupsByUser(t *testing.T) {
	repo, mock, closeDB := newMockPostRepo(t)
	defer closeDB()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"u.id", "u.name", "u.email", "u.created_at",
		"p.id", "p.title", "p.content", "p.user_id", "p.created_at",
	}).
		AddRow(1, "Ada", "ada@x.io", now, 1, "Hello World", "hi", 1, now).
		AddRow(1, "Ada", "ada@x.io", now, 2, "Second", "more", 1, now).
		AddRow(2, "Tom", "tom@x.io", now, nil, nil, nil, nil, nil)
	mock.ExpectQuery("SELECT u.id, u.name, u.email, u.created_at").
		WillReturnRows(rows)

	users, err := repo.FindAllOwnersWithPosts(context.Background())
	if err != nil {
		t.Fatalf("FindAllOwnersWithPosts returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if len(users[0].Posts) != 2 {
		t.Fatalf("expected 2 posts for Ada, got %d", len(users[0].Posts))
	}
	if users[1].Name != "Tom" || len(users[1].Posts) != 0 {
		t.Fatalf("expected Tom with zero posts, got %+v", users[1])
	}
	if users[1].Posts == nil {
		t.Fatalf("posts must be an empty slice, not nil")
	}
	// One query for all owners and posts; a per-user follow-up would fail here.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
