package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
)

// RegisterAdmin registers the /api/admin endpoints.  Every route requires a
// valid access token.  Creating, updating and deleting users additionally
// requires system_admin; reads and store management are open to any
// authenticated caller.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/api/admin", d.jwt())
	admin := middleware.RequireRole(model.RoleSystemAdmin)

	// ---- Users ----
	g.POST("/users", d.Users.Create, admin)
	g.GET("/dashboard-stats", d.Users.Stats, optional(d.StatsCache)...)
	g.GET("/users", d.Users.List)
	g.GET("/users/:id", d.Users.Get)
	g.PUT("/users/:id", d.Users.Update, admin)
	g.DELETE("/users/:id", d.Users.Delete, admin)

	// ---- Stores ----
	g.POST("/stores", d.Stores.Create)
	g.GET("/stores", d.Stores.List)
	g.GET("/stores/:id", d.Stores.Get)
	g.PUT("/stores/:id", d.Stores.Update)
	g.DELETE("/stores/:id", d.Stores.Delete)
}
