package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Admin runs after Protect and rejects non-admin callers.
func (m *Middleware) Admin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return echo.NewHTTPError(http.StatusForbidden, "not authorized as admin")
		}
		return next(c)
	}
}
