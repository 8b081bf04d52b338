package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole restricts a route to the given roles. The allowed set is
// captured once at route registration. A missing identity means the
// gates were registered out of order and yields 401, not 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := FromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !allowed[ident.Role] {
				// The denial names the required set and the actual role,
				// and nothing else about the identity.
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("requires one of %v, have role %q", roles, ident.Role))
			}
			return next(c)
		}
	}
}
