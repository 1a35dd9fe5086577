package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	appcontext "github.com/kanehiroyuu/blog-api/internal/common/context"
	"github.com/kanehiroyuu/blog-api/internal/common/logging"
	"github.com/kanehiroyuu/blog-api/internal/domain"
	"github.com/kanehiroyuu/blog-api/internal/presentation/response"
	"github.com/kanehiroyuu/blog-api/internal/usecase"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct{}

// NewPostHandler creates a new PostHandler
func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

// CreatePostRequest represents the request body for creating a post
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=100"`
	Content string `json:"content" validate:"required,min=1"`
	UserID  int    `json:"user_id" validate:"required"`
}

// UpdatePostRequest represents the request body for updating a post
type UpdatePostRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=100"`
	Content string `json:"content" validate:"required,min=1"`
}

func (h *PostHandler) interactor(c echo.Context) *usecase.PostUseCase {
	locator := appcontext.GetRepoLocator(c.Request().Context())
	return &usecase.PostUseCase{
		Logger: appcontext.GetLogger(c.Request().Context()),
		RUser:  locator.RUser(),
		RPost:  locator.RPost(),
		RCache: locator.RCache(),
	}
}

// CreatePost handles POST /posts
func (h *PostHandler) CreatePost(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.create_post")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	var req CreatePostRequest
	if err := c.Bind(&req); err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to decode request body", err, nil)
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Request body is not valid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: err.Error()})
	}

	span.SetTag("post.user_id", req.UserID)

	post, err := h.interactor(c).CreatePost(ctx, req.Title, req.Content, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrOwnerNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrorResponse{
				Detail: fmt.Sprintf("User with ID %d does not exist", req.UserID),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to create post", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	span.SetTag("post.id", post.ID)

	return c.JSON(http.StatusCreated, response.NewPostResponse(post))
}

// GetPost handles GET /posts/:id
func (h *PostHandler) GetPost(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_post")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Post ID must be a valid integer"})
	}

	span.SetTag("post.id", id)

	post, err := h.interactor(c).GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrorResponse{
				Detail: fmt.Sprintf("Post with ID %d not found", id),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get post", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, response.NewPostResponse(post))
}

// GetUserPosts handles GET /users/:id/posts. The owner must exist; an owner
// with no posts yields an empty array.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_user_posts")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "User ID must be a valid integer"})
	}

	span.SetTag("post.user_id", userID)

	posts, err := h.interactor(c).ListPostsByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrorResponse{
				Detail: fmt.Sprintf("User with ID %d not found", userID),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to list user posts", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	span.SetTag("posts.count", len(posts))

	return c.JSON(http.StatusOK, response.NewPostResponses(posts))
}

// UpdatePost handles PUT /posts/:id
func (h *PostHandler) UpdatePost(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.update_post")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Post ID must be a valid integer"})
	}

	var req UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to decode request body", err, nil)
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Request body is not valid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: err.Error()})
	}

	span.SetTag("post.id", id)

	post, err := h.interactor(c).UpdatePost(ctx, id, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrorResponse{
				Detail: fmt.Sprintf("Post with ID %d not found", id),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to update post", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, response.NewPostResponse(post))
}

// DeletePost handles DELETE /posts/:id
func (h *PostHandler) DeletePost(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.delete_post")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Post ID must be a valid integer"})
	}

	span.SetTag("post.id", id)

	deleted, err := h.interactor(c).DeletePost(ctx, id)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to delete post", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, response.ErrorResponse{
			Detail: fmt.Sprintf("Post with ID %d not found", id),
		})
	}

	return c.NoContent(http.StatusNoContent)
}
