package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/handler"
	"github.com/iliyamo/store-rating-api/internal/middleware"
)

// Deps bundles the handlers and cross-cutting middleware the routes need.
// RateLimit guards the public auth endpoints and StatsCache the dashboard
// counters; either may be nil.
type Deps struct {
	Tokens middleware.AccessTokenParser
	DB     handler.Pinger

	Auth   *handler.AuthHandler
	Users  *handler.AdminUserHandler
	Stores *handler.AdminStoreHandler
	Rating *handler.RatingHandler
	Owner  *handler.OwnerHandler

	RateLimit  echo.MiddlewareFunc
	StatsCache echo.MiddlewareFunc
	Metrics    http.Handler
}

func (d Deps) jwt() echo.MiddlewareFunc { return middleware.JWTAuth(d.Tokens) }

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}

// RegisterRoutes mounts every route of the API on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// Routes that need no authentication: the greeting, a health check for
	// load balancers and the Prometheus scrape endpoint.
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health(d.DB))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	RegisterAuth(e, d)
	RegisterAdmin(e, d)
	RegisterUser(e, d)
	RegisterOwner(e, d)
}

// RegisterAuth registers the session endpoints under /api/auth.  Signup,
// login, refresh and logout are public and rate limited; update-password
// requires a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/api/auth")
	limited := optional(d.RateLimit)
	g.POST("/signup", d.Auth.Signup, limited...)
	g.POST("/login", d.Auth.Login, limited...)
	// Issues a new access token; the refresh token itself is not rotated.
	g.POST("/refresh-token", d.Auth.RefreshToken, limited...)
	// Logout carries the refresh token in the body, no access token needed.
	g.POST("/logout", d.Auth.Logout, limited...)

	g.POST("/update-password", d.Auth.UpdatePassword, d.jwt())
}
