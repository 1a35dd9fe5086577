package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/domain"
	"github.com/kanehiroyuu/blog-api/internal/domain/entities"
	infraredis "github.com/kanehiroyuu/blog-api/internal/infrastructure/redis"
	"github.com/kanehiroyuu/blog-api/internal/usecase/port"
)

// PostUseCase implements post business logic
type PostUseCase struct {
	Logger port.Logger
	RUser  port.UserRepository
	RPost  port.PostRepository
	RCache port.CacheRepository
}

// CreatePost creates a new post. The owner is checked before the insert; the
// store's foreign key is the second line of defense, so even a racing owner
// delete cannot leave an orphan row.
func (uc *PostUseCase) CreatePost(ctx context.Context, title, content string, userID int) (*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.create_post")
	defer span.Finish()

	span.SetTag("post.title", title)
	span.SetTag("post.user_id", userID)

	if _, err := uc.RUser.FindByIDWithPosts(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			span.SetTag("owner.exists", false)
			logging.LogWithTrace(ctx, uc.Logger, "usecase", "Rejecting post for missing owner", logrus.Fields{
				"post.user_id": userID,
			})
			return nil, domain.ErrOwnerNotFound
		}
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	post := entities.NewPost(title, content, userID)

	if err := uc.RPost.Create(ctx, post); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to create post in repository", err, nil)
		return nil, err
	}

	span.SetTag("post.id", post.ID)

	// The owner's cached projection now misses this post.
	uc.invalidateOwnerCache(ctx, userID)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Post created", logrus.Fields{
		"post.id":      post.ID,
		"post.user_id": userID,
	})

	return post, nil
}

// GetPost retrieves a post by ID.
func (uc *PostUseCase) GetPost(ctx context.Context, id int) (*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_post")
	defer span.Finish()

	span.SetTag("post.id", id)

	post, err := uc.RPost.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
			logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to get post from repository", err, logrus.Fields{
				"post.id": id,
			})
		}
		return nil, err
	}

	span.SetTag("post.user_id", post.UserID)

	return post, nil
}

// ListPostsByOwner returns all posts of one user. A missing owner is
// domain.ErrNotFound; an owner with no posts is an empty slice.
func (uc *PostUseCase) ListPostsByOwner(ctx context.Context, userID int) ([]*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.list_posts_by_owner")
	defer span.Finish()

	span.SetTag("post.user_id", userID)

	if _, err := uc.RUser.FindByIDWithPosts(ctx, userID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
		}
		return nil, err
	}

	posts, err := uc.RPost.FindByOwner(ctx, userID)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to list posts", err, logrus.Fields{
			"post.user_id": userID,
		})
		return nil, err
	}

	span.SetTag("posts.count", len(posts))

	return posts, nil
}

// UpdatePost overwrites title and content of an existing post and invalidates
// the owner's cached projection.
func (uc *PostUseCase) UpdatePost(ctx context.Context, id int, title, content string) (*entities.Post, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.update_post")
	defer span.Finish()

	span.SetTag("post.id", id)

	post := &entities.Post{ID: id, Title: title, Content: content}

	updated, err := uc.RPost.Update(ctx, post)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
			logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to update post", err, logrus.Fields{
				"post.id": id,
			})
		}
		return nil, err
	}

	uc.invalidateOwnerCache(ctx, updated.UserID)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Post updated", logrus.Fields{
		"post.id":      updated.ID,
		"post.user_id": updated.UserID,
	})

	return updated, nil
}

// DeletePost removes a post. Returns whether a row was removed.
func (uc *PostUseCase) DeletePost(ctx context.Context, id int) (bool, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.delete_post")
	defer span.Finish()

	span.SetTag("post.id", id)

	// Fetch first: the owner's ID is needed for cache invalidation.
	post, err := uc.RPost.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return false, err
	}

	deleted, err := uc.RPost.Delete(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to delete post", err, logrus.Fields{
			"post.id": id,
		})
		return false, err
	}

	span.SetTag("post.deleted", deleted)

	if deleted {
		uc.invalidateOwnerCache(ctx, post.UserID)
		logging.LogWithTrace(ctx, uc.Logger, "usecase", "Post deleted", logrus.Fields{
			"post.id":      id,
			"post.user_id": post.UserID,
		})
	}

	return deleted, nil
}

// invalidateOwnerCache drops the owner's cached projection. Best effort.
func (uc *PostUseCase) invalidateOwnerCache(ctx context.Context, userID int) {
	cacheKey := infraredis.UserKey(userID)
	if err := uc.RCache.Delete(ctx, cacheKey); err != nil {
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to invalidate owner cache", err, logrus.Fields{
			"cache.key": cacheKey,
		})
	}
}
