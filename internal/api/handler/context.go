package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

// ctxIdentity extracts the caller identity injected by the Auth middleware
// and fast-fails before any service call: both claims must be present
// (presence proves the middleware ran on this route).
func ctxIdentity(c echo.Context) (ports.Identity, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" || role == "" {
		return ports.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Identity{UserID: userID, Role: role}, nil
}
