package middleware

// identity.go holds the helpers that move the authenticated identity between
// the JWT middleware, the role gate, the rate limiter, the cache and the
// handlers.  The identity is attached to both the Echo context and the
// request's context.Context so that code below the HTTP layer can read it too.

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// identityKey is the Echo context key; ctxKey is the context.Context key.
const identityKey = "identity"

type ctxKey struct{}

// SetIdentity attaches id to the current request.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, id)))
}

// IdentityFrom returns the identity attached by JWTAuth, if any.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// IdentityFromContext is IdentityFrom for code that only sees a
// context.Context.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(model.Identity)
	return id, ok
}

// userID returns the authenticated user's id as a string, or "guest" when
// the request carries no identity.  Rate-limit and cache keys use it.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.ID != 0 {
		return strconv.FormatUint(id.ID, 10)
	}
	return "guest"
}
