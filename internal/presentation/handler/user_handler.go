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

// UserHandler handles user-related HTTP requests
type UserHandler struct{}

// NewUserHandler creates a new UserHandler
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Email string `json:"email" validate:"required,email"`
}

func (h *UserHandler) interactor(c echo.Context) *usecase.UserUseCase {
	locator := appcontext.GetRepoLocator(c.Request().Context())
	return &usecase.UserUseCase{
		Logger: appcontext.GetLogger(c.Request().Context()),
		RUser:  locator.RUser(),
		RPost:  locator.RPost(),
		RCache: locator.RCache(),
	}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.create_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to decode request body", err, nil)
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Request body is not valid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: err.Error()})
	}

	span.SetTag("user.email", req.Email)

	user, err := h.interactor(c).CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			span.SetTag("conflict", true)
			return c.JSON(http.StatusConflict, response.ErrorResponse{
				Detail: fmt.Sprintf("User with email '%s' already exists", req.Email),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to create user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	span.SetTag("user.id", user.ID)

	return c.JSON(http.StatusOK, response.NewUserResponse(user))
}

// GetAllUsers handles GET /users with an optional name filter
func (h *UserHandler) GetAllUsers(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_all_users")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	nameFilter := c.QueryParam("name")

	users, err := h.interactor(c).ListUsers(ctx, nameFilter)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to list users", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	span.SetTag("users.count", len(users))

	return c.JSON(http.StatusOK, response.NewUserResponses(users))
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "User ID must be a valid integer"})
	}

	span.SetTag("user.id", id)

	user, err := h.interactor(c).GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrorResponse{
				Detail: fmt.Sprintf("User with ID %d not found", id),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, response.NewUserResponse(user))
}

// UpdateUser handles PUT /users/:id. A missing row and an email conflict both
// map to 404, keeping the merged not-found/conflict contract of this route.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.update_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "User ID must be a valid integer"})
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to decode request body", err, nil)
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "Request body is not valid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: err.Error()})
	}

	span.SetTag("user.id", id)

	user, err := h.interactor(c).UpdateUser(ctx, id, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateEmail) {
			return c.JSON(http.StatusNotFound, response.ErrorResponse{
				Detail: fmt.Sprintf("User with ID %d not found or email conflict", id),
			})
		}
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to update user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, response.NewUserResponse(user))
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.delete_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{Detail: "User ID must be a valid integer"})
	}

	span.SetTag("user.id", id)

	deleted, err := h.interactor(c).DeleteUser(ctx, id)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to delete user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{Detail: "Internal Server Error"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, response.ErrorResponse{
			Detail: fmt.Sprintf("User with ID %d not found", id),
		})
	}

	return c.JSON(http.StatusOK, response.MessageResponse{
		Message: fmt.Sprintf("User with ID %d successfully deleted", id),
	})
}
