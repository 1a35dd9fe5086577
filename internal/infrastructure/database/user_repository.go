package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/domain"
	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
)

// UserRepository implements port.UserRepository for MySQL. Each write runs in
// its own transaction and rolls back on failure, so no partial row is ever
// visible to a later read.
type UserRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user and writes the generated ID back onto the entity.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.create_user")
	defer span.Finish()

	query := "INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	startTime := time.Now()
	result, err := tx.ExecContext(ctx, query, user.Name, user.Email, user.CreatedAt)
	duration := time.Since(startTime)
	if err != nil {
		tx.Rollback()
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: name=%s, email=%s] [duration: %v]", query, user.Name, user.Email, duration), err, logrus.Fields{
			"query":           query,
			"user.email":      user.Email,
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
		r.logErrorWithTrace(ctx, "Failed to commit user insert", err, nil)
		return fmt.Errorf("failed to commit: %w", err)
	}

	user.ID = int(id)
	span.SetTag("user.id", user.ID)

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: User created with ID=%d [duration: %v]", user.ID, duration), logrus.Fields{
		"user.id":         user.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return nil
}

// FindAll retrieves all users, optionally filtered by a case-insensitive
// substring match on name. Posts are not loaded here.
func (r *UserRepository) FindAll(ctx context.Context, nameFilter string) ([]*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_all_users")
	defer span.Finish()

	query := "SELECT id, name, email, created_at FROM users"
	var args []interface{}
	if nameFilter != "" {
		query += " WHERE LOWER(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(nameFilter)+"%")
		span.SetTag("users.name_filter", nameFilter)
	}
	query += " ORDER BY id"

	r.logWithTrace(ctx, fmt.Sprintf("SQL: %s", query), logrus.Fields{
		"query": query,
	})

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		var user entities.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	span.SetTag("users.count", len(users))

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Retrieved %d users [duration: %v]", len(users), duration), logrus.Fields{
		"users.count":     len(users),
		"sql.duration_ms": duration.Milliseconds(),
	})

	return users, nil
}

// FindByIDWithPosts returns the user together with all of its posts in a
// single LEFT JOIN round trip. One query regardless of how many posts the
// user owns.
func (r *UserRepository) FindByIDWithPosts(ctx context.Context, id int) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_user_by_id_with_posts")
	defer span.Finish()

	query := `SELECT u.id, u.name, u.email, u.created_at,
		p.id, p.title, p.content, p.user_id, p.created_at
		FROM users u
		LEFT JOIN posts p ON p.user_id = u.id
		WHERE u.id = ?
		ORDER BY p.id`

	span.SetTag("user.id", id)

	r.logWithTrace(ctx, fmt.Sprintf("SQL: %s [params: id=%d]", query, id), logrus.Fields{
		"query":   query,
		"user.id": id,
	})

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, id)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: id=%d] [duration: %v]", query, id, duration), err, logrus.Fields{
			"query":           query,
			"user.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	defer rows.Close()

	var user *entities.User
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
			return nil, fmt.Errorf("failed to scan user with posts: %w", err)
		}
		if user == nil {
			user = &u
			user.Posts = []*entities.Post{}
		}
		// Post columns are NULL when the user owns no posts.
		if postID.Valid {
			user.Posts = append(user.Posts, &entities.Post{
				ID:        int(postID.Int64),
				Title:     postTitle.String,
				Content:   postContent.String,
				UserID:    int(postUserID.Int64),
				CreatedAt: postCreatedAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	if user == nil {
		r.logWithTrace(ctx, fmt.Sprintf("SQL result: User not found (id=%d) [duration: %v]", id, duration), logrus.Fields{
			"user.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, domain.ErrNotFound
	}

	span.SetTag("user.name", user.Name)
	span.SetTag("posts.count", len(user.Posts))

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Found user ID=%d with %d posts [duration: %v]", user.ID, len(user.Posts), duration), logrus.Fields{
		"user.id":         user.ID,
		"posts.count":     len(user.Posts),
		"sql.duration_ms": duration.Milliseconds(),
	})

	return user, nil
}

// Update overwrites name and email of the row identified by user.ID. The
// existence check runs inside the same transaction as the write.
func (r *UserRepository) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.update_user")
	defer span.Finish()

	span.SetTag("user.id", user.ID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var existingID int
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ?", user.ID).Scan(&existingID)
	if err == sql.ErrNoRows {
		tx.Rollback()
		r.logWithTrace(ctx, fmt.Sprintf("SQL result: User not found for update (id=%d)", user.ID), logrus.Fields{
			"user.id": user.ID,
		})
		return nil, domain.ErrNotFound
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to query user for update: %w", err)
	}

	query := "UPDATE users SET name = ?, email = ? WHERE id = ?"

	startTime := time.Now()
	_, err = tx.ExecContext(ctx, query, user.Name, user.Email, user.ID)
	duration := time.Since(startTime)
	if err != nil {
		tx.Rollback()
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [params: id=%d] [duration: %v]", query, user.ID, duration), err, logrus.Fields{
			"query":           query,
			"user.id":         user.ID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, mapWriteError(err)
	}

	if err := tx.Commit(); err != nil {
		r.logErrorWithTrace(ctx, "Failed to commit user update", err, nil)
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: User updated (id=%d) [duration: %v]", user.ID, duration), logrus.Fields{
		"user.id":         user.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return user, nil
}

// Delete removes the user row. The store's ON DELETE CASCADE removes all of
// the user's posts in the same transaction. Returns whether a row was removed.
func (r *UserRepository) Delete(ctx context.Context, id int) (bool, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.delete_user")
	defer span.Finish()

	query := "DELETE FROM users WHERE id = ?"

	span.SetTag("user.id", id)

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
			"user.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logErrorWithTrace(ctx, "Failed to commit user delete", err, nil)
		return false, fmt.Errorf("failed to commit: %w", err)
	}

	span.SetTag("rows.deleted", affected)

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Deleted %d user rows (id=%d) [duration: %v]", affected, id, duration), logrus.Fields{
		"user.id":         id,
		"rows.deleted":    affected,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return affected > 0, nil
}

// logWithTrace logs a message with trace information
func (r *UserRepository) logWithTrace(ctx context.Context, message string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogWithTrace(ctx, r.logger, "repository", message, fields)
}

// logErrorWithTrace logs an error with trace information
func (r *UserRepository) logErrorWithTrace(ctx context.Context, message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogErrorWithTrace(ctx, r.logger, "repository", message, err, fields)
}
