package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/domain"
	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
)

// PostRepository implements port.PostRepository for MySQL.
type PostRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *sql.DB, logger *logrus.Logger) *PostRepository {
	return &PostRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new post. A foreign key violation (the owning user does
// not exist) rolls back and surfaces as domain.ErrOwnerNotFound, leaving no
// row behind.
func (r *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.create_post")
	defer span.Finish()

	query := "INSERT INTO posts (title, content, user_id, created_at) VALUES (?, ?, ?, ?)"

	span.SetTag("post.user_id", post.UserID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	startTime := time.Now()
	result, err := tx.ExecContext(ctx, query, post.Title, post.Content, post.UserID, post.CreatedAt)
	duration := time.Since(startTime)
	if err != nil {
		tx.Rollback()
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: title=%s, user_id=%d] [duration: %v]", query, post.Title, post.UserID, duration), err, logrus.Fields{
			"query":           query,
			"post.user_id":    post.UserID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return mapWriteError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		r.logErrorWithTrace(ctx, "Failed to get last insert ID", err, nil)
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logErrorWithTrace(ctx, "Failed to commit post insert", err, nil)
		return fmt.Errorf("failed to commit: %w", err)
	}

	post.ID = int(id)
	span.SetTag("post.id", post.ID)

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Post created with ID=%d [duration: %v]", post.ID, duration), logrus.Fields{
		"post.id":         post.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return nil
}

// FindByID finds a post by ID
func (r *PostRepository) FindByID(ctx context.Context, id int) (*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_post_by_id")
	defer span.Finish()

	query := "SELECT id, title, content, user_id, created_at FROM posts WHERE id = ?"

	span.SetTag("post.id", id)

	var post entities.Post

	startTime := time.Now()
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.UserID,
		&post.CreatedAt,
	)
	duration := time.Since(startTime)

	if err == sql.ErrNoRows {
		r.logWithTrace(ctx, fmt.Sprintf("SQL result: Post not found (id=%d) [duration: %v]", id, duration), logrus.Fields{
			"post.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: id=%d] [duration: %v]", query, id, duration), err, logrus.Fields{
			"query":           query,
			"post.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, fmt.Errorf("failed to query post: %w", err)
	}

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Found post ID=%d [duration: %v]", post.ID, duration), logrus.Fields{
		"post.id":         post.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return &post, nil
}

// FindByOwner returns all posts owned by userID. An owner with no posts
// yields an empty slice, not an error.
func (r *PostRepository) FindByOwner(ctx context.Context, userID int) ([]*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_posts_by_owner")
	defer span.Finish()

	query := "SELECT id, title, content, user_id, created_at FROM posts WHERE user_id = ? ORDER BY id"

	span.SetTag("post.user_id", userID)

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, userID)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: user_id=%d] [duration: %v]", query, userID, duration), err, logrus.Fields{
			"query":           query,
			"post.user_id":    userID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []*entities.Post{}
	for rows.Next() {
		var post entities.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	span.SetTag("posts.count", len(posts))

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Retrieved %d posts for user_id=%d [duration: %v]", len(posts), userID, duration), logrus.Fields{
		"posts.count":     len(posts),
		"post.user_id":    userID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return posts, nil
}

// Update overwrites title and content of the row identified by post.ID.
func (r *PostRepository) Update(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.update_post")
	defer span.Finish()

	span.SetTag("post.id", post.ID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var ownerID int
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM posts WHERE id = ?", post.ID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		tx.Rollback()
		r.logWithTrace(ctx, fmt.Sprintf("SQL result: Post not found for update (id=%d)", post.ID), logrus.Fields{
			"post.id": post.ID,
		})
		return nil, domain.ErrNotFound
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to query post for update: %w", err)
	}

	query := "UPDATE posts SET title = ?, content = ? WHERE id = ?"

	startTime := time.Now()
	_, err = tx.ExecContext(ctx, query, post.Title, post.Content, post.ID)
	duration := time.Since(startTime)
	if err != nil {
		tx.Rollback()
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: id=%d] [duration: %v]", query, post.ID, duration), err, logrus.Fields{
			"query":           query,
			"post.id":         post.ID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, mapWriteError(err)
	}

	if err := tx.Commit(); err != nil {
		r.logErrorWithTrace(ctx, "Failed to commit post update", err, nil)
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	post.UserID = ownerID

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Post updated (id=%d) [duration: %v]", post.ID, duration), logrus.Fields{
		"post.id":         post.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return post, nil
}

// Delete removes the post row. Returns whether a row was removed.
func (r *PostRepository) Delete(ctx context.Context, id int) (bool, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.delete_post")
	defer span.Finish()

	query := "DELETE FROM posts WHERE id = ?"

	span.SetTag("post.id", id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	startTime := time.Now()
	result, err := tx.ExecContext(ctx, query, id)
	duration := time.Since(startTime)
	if err != nil {
		tx.Rollback()
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: id=%d] [duration: %v]", query, id, duration), err, logrus.Fields{
			"query":           query,
			"post.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return false, fmt.Errorf("failed to delete post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logErrorWithTrace(ctx, "Failed to commit post delete", err, nil)
		return false, fmt.Errorf("failed to commit: %w", err)
	}

	span.SetTag("rows.deleted", affected)

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Deleted %d post rows (id=%d) [duration: %v]", affected, id, duration), logrus.Fields{
		"post.id":         id,
		"rows.deleted":    affected,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return affected > 0, nil
}

// FindAllOwnersWithPosts bulk-loads every user together with its posts in one
// LEFT JOIN round trip, so listing everything never costs one query per user.
func (r *PostRepository) FindAllOwnersWithPosts(ctx context.Context) ([]*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_all_owners_with_posts")
	defer span.Finish()

	query := `SELECT u.id, u.name, u.email, u.created_at,
		p.id, p.title, p.content, p.user_id, p.created_at
		FROM users u
		LEFT JOIN posts p ON p.user_id = u.id
		ORDER BY u.id, p.id`

	r.logWithTrace(ctx, fmt.Sprintf("SQL: %s", query), logrus.Fields{
		"query": query,
	})

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, fmt.Errorf("failed to query owners with posts: %w", err)
	}
	defer rows.Close()

	var (
		users   []*entities.User
		current *entities.User
	)
	for rows.Next() {
		var (
			u             entities.User
			postID        sql.NullInt64
			postTitle     sql.NullString
			postContent   sql.NullString
			postUserID    sql.NullInt64
			postCreatedAt sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt,
			&postID, &postTitle, &postContent, &postUserID, &postCreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan owner with posts: %w", err)
		}
		// Rows arrive ordered by user ID, so a change of ID starts a new user.
		if current == nil || current.ID != u.ID {
			current = &u
			current.Posts = []*entities.Post{}
			users = append(users, current)
		}
		if postID.Valid {
			current.Posts = append(current.Posts, &entities.Post{
				ID:        int(postID.Int64),
				Title:     postTitle.String,
				Content:   postContent.String,
				UserID:    int(postUserID.Int64),
				CreatedAt: postCreatedAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate owner rows: %w", err)
	}

	span.SetTag("users.count", len(users))

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Retrieved %d users with posts [duration: %v]", len(users), duration), logrus.Fields{
		"users.count":     len(users),
		"sql.duration_ms": duration.Milliseconds(),
	})

	return users, nil
}

// logWithTrace logs a message with trace information
func (r *PostRepository) logWithTrace(ctx context.Context, message string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogWithTrace(ctx, r.logger, "repository", message, fields)
}

// logErrorWithTrace logs an error with trace information
func (r *PostRepository) logErrorWithTrace(ctx context.Context, message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogErrorWithTrace(ctx, r.logger, "repository", message, err, fields)
}
