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

// AuthAPI is the session lifecycle behind /api/auth.
type AuthAPI interface {
	Signup(ctx context.Context, in service.SignupInput) (uint64, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, raw string) (string, error)
	Logout(ctx context.Context, raw string) error
	ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error
}

// AuthHandler serves signup, login, token refresh, logout and password
// change.
type AuthHandler struct {
	Auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type signupReq struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Address  *string `json:"address"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type passwordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type loginResp struct {
	Message      string         `json:"message"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         model.Identity `json:"user"`
}

// Signup registers a normal user.  A role in the body is ignored.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if req.Address != nil && *req.Address == "" {
		req.Address = nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Auth.Signup(ctx, service.SignupInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "userId": id})
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, loginResp{
		Message:      "Login successful",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// RefreshToken exchanges a refresh token for a new access token without
// rotating the refresh token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access})
}

// Logout deletes the refresh token carried in the body.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "Logged out successfully."})
}

// UpdatePassword changes the caller's own password.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	var req passwordReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, id.ID, req.OldPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "Password updated successfully."})
}
