package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goshop/storefront/internal/tokens"
)

type Middleware struct {
	JWTSecret []byte
}

// Protect requires a valid access token and stores the caller's id and
// role on the request context.
func (m *Middleware) Protect(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := extractToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, no token")
		}
		claims, err := tokens.Parse(raw, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token failed")
		}
		if err := setUserContext(c, claims); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token failed")
		}
		return next(c)
	}
}
