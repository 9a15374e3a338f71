package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/animalguardian/platform/internal/core/domain"
)

// RequireRole lets the request through when the actor holds one of roles or
// is a staff account. It must run after Auth.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !actor.IsStaff && !lo.Contains(roles, actor.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "your role may not perform this action")
			}
			return next(c)
		}
	}
}
