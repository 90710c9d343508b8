package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// OwnerHandler serves the store owner dashboard.
type OwnerHandler struct {
	Stores StoreAPI
}

func NewOwnerHandler(stores StoreAPI) *OwnerHandler {
	return &OwnerHandler{Stores: stores}
}

// Dashboard returns the caller's store and the ratings it received.
func (h *OwnerHandler) Dashboard(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Stores.OwnerDashboard(ctx, id.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
