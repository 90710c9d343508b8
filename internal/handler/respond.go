package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
)

// msg is the error and acknowledgement envelope.
type msg struct {
	Message string `json:"message"`
}

// fail renders err as {message} with the status of its kind.  Server-side
// causes stay in the log.
func fail(c echo.Context, err error) error {
	status, text := apperr.Public(err)
	return c.JSON(status, msg{Message: text})
}

// HTTPErrorHandler renders errors that escape handlers and middleware
// (unknown routes, bad methods, panics recovered by Recover) in the same
// {message} shape.
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, text := http.StatusInternalServerError, "Internal server error."
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				text = m
			} else {
				text = http.StatusText(he.Code)
			}
		default:
			status, text = apperr.Public(err)
		}
		if status >= 500 {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, msg{Message: text})
	}
}

// identity returns the caller attached by the JWT middleware.
func identity(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, apperr.Unauthenticated("Authorization token missing.")
	}
	return id, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context, what string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid " + what + " id.")
	}
	return id, nil
}

// bind decodes the JSON body into dst.
func bind(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperr.Validation("Invalid request body.")
	}
	return nil
}

// sortOrder reads the sort and order query parameters.
func sortOrder(c echo.Context) (string, bool) {
	return strings.TrimSpace(c.QueryParam("sort")), strings.EqualFold(c.QueryParam("order"), "desc")
}
