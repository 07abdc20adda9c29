package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// RBAC restricts a route group to operators whose token carries one of roles.
// It must run after Auth. Rejections are returned as *echo.HTTPError so the
// central error handler renders them.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing role claim")
			}
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, "operator role "+role+" may not use this route")
			}
			return next(c)
		}
	}
}
