package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Welcome answers GET / with a plain greeting.
func Welcome(c echo.Context) error {
	return c.String(http.StatusOK, "Welcome to the Store Rating API! Server is running.")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

var _ Pinger = (*sql.DB)(nil)

// Health is used by load balancers and monitoring.  It reports 503 when the
// database does not answer a ping within two seconds.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "database": "down"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "up"})
	}
}
