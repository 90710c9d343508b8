package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/service"
)

// UserAPI is the admin user management behind /api/admin/users.
type UserAPI interface {
	Create(ctx context.Context, in service.CreateUserInput) (uint64, error)
	List(ctx context.Context, f model.UserFilter) ([]model.UserView, error)
	Get(ctx context.Context, id uint64) (*model.UserView, error)
	Update(ctx context.Context, id uint64, in service.UpdateUserInput) error
	Delete(ctx context.Context, id uint64) error
	Stats(ctx context.Context) (*model.Stats, error)
}

// AdminUserHandler serves user CRUD and the dashboard counters.
type AdminUserHandler struct {
	Users UserAPI
}

func NewAdminUserHandler(users UserAPI) *AdminUserHandler {
	return &AdminUserHandler{Users: users}
}

type createUserReq struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Address  *string `json:"address"`
	Role     string  `json:"role"`
}

type updateUserReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Address  *string `json:"address"`
	Role     *string `json:"role"`
}

// Create adds a user with an explicit role.
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if req.Address != nil && *req.Address == "" {
		req.Address = nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, service.CreateUserInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Address:  req.Address,
		Role:     strings.TrimSpace(req.Role),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully", "userId": id})
}

// Stats returns the user, store and rating totals.
func (h *AdminUserHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Users.Stats(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// List returns users filtered by name, email, address and role.
func (h *AdminUserHandler) List(c echo.Context) error {
	sort, desc := sortOrder(c)
	f := model.UserFilter{
		Name:    strings.TrimSpace(c.QueryParam("name")),
		Email:   strings.TrimSpace(c.QueryParam("email")),
		Address: strings.TrimSpace(c.QueryParam("address")),
		Role:    model.Role(strings.TrimSpace(c.QueryParam("role"))),
		Sort:    sort,
		Desc:    desc,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one user.
func (h *AdminUserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "user")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Update applies a partial user update.
func (h *AdminUserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "user")
	if err != nil {
		return fail(c, err)
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Users.Update(ctx, id, service.UpdateUserInput{
		Name:     trimmed(req.Name),
		Email:    trimmed(req.Email),
		Password: req.Password,
		Address:  req.Address,
		Role:     trimmed(req.Role),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "User updated successfully."})
}

// Delete removes a user and everything hanging off it.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "user")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "User deleted successfully."})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
