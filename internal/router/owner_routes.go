package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
)

// RegisterOwner registers store_owner endpoints under /api/store-owner.
func RegisterOwner(e *echo.Echo, d Deps) {
	g := e.Group(
		"/api/store-owner",
		d.jwt(),
		middleware.RequireRole(model.RoleStoreOwner),
	)
	g.GET("/dashboard", d.Owner.Dashboard)
}
