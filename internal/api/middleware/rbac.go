package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// RBAC lets the request through only when Auth resolved one of the given
// roles. Rejections use the same {"error","code"} body as domain failures.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := slices.Clone(allowedRoles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(domain.Role)
			if !slices.Contains(allowed, role) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "forbidden",
					"code":  "role_not_allowed",
				})
			}
			return next(c)
		}
	}
}
