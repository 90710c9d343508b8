package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/utils"
)

// AccessTokenParser verifies an access token and returns its claims.
type AccessTokenParser interface {
	ParseAccessToken(raw string) (*utils.Claims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// attaches the token's identity to the request.  Only the signature and the
// expiry are checked; no store is consulted, so a token stays usable until
// it expires.
func JWTAuth(parser AccessTokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer " followed by the JWT.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if !strings.HasPrefix(auth, "Bearer ") || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authorization token missing."})
			}

			claims, err := parser.ParseAccessToken(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid or expired token."})
			}

			SetIdentity(c, claims.Identity())
			return next(c)
		}
	}
}
