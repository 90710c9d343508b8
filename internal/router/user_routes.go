package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
)

// RegisterUser registers the store browsing and rating endpoints.
func RegisterUser(e *echo.Echo, d Deps) {
	g := e.Group("/api", d.jwt())

	g.GET("/stores", d.Rating.ListStores, middleware.RequireRole(model.RoleNormalUser, model.RoleStoreOwner))

	normal := middleware.RequireRole(model.RoleNormalUser)
	g.POST("/ratings", d.Rating.Submit, normal)
	g.PUT("/ratings/:id", d.Rating.Modify, normal)
}
