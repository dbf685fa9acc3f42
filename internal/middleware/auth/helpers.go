package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/goshop/storefront/internal/tokens"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// extractToken prefers the Authorization header, falling back to the
// access cookie the login handler sets for browsers.
func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}

func setUserContext(c echo.Context, claims jwt.MapClaims) error {
	sub, err := tokens.Subject(claims)
	if err != nil {
		return err
	}
	role, err := tokens.Role(claims)
	if err != nil {
		return err
	}
	c.Set(ctxUserID, sub)
	c.Set(ctxRole, role)
	return nil
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(ctxRole).(string)
	return role == "admin"
}
