package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// RequireRole returns a middleware that lets the request through only when
// the authenticated identity has one of roles.  It must run after JWTAuth; a
// request without an identity is refused the same way as a wrong role.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	// Set of allowed roles; the value is always true when present.
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied. You do not have the required role."})
			}
			return next(c)
		}
	}
}
