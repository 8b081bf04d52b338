package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmarulanda/muninet/internal/tokens"
)

// CtxIdentity is the echo context key the authentication gate stores
// the decoded identity under.
const CtxIdentity = "identity"

// Identity is what downstream handlers see. It never carries the
// password hash, not even transiently.
type Identity struct {
	UserID         uint
	Username       string
	Email          string
	RoleID         uint
	Role           string
	MunicipalityID *uint
}

// FromContext returns the identity attached by Authenticate, if any.
func FromContext(c echo.Context) (Identity, bool) {
	ident, ok := c.Get(CtxIdentity).(Identity)
	return ident, ok
}

// Authenticate extracts a Bearer access token, verifies it and attaches
// the decoded identity to the request context. Each codec failure maps
// to its own outward message so clients can tell an expired token from
// a refresh token presented as an access credential.
func Authenticate(codec *tokens.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := codec.VerifyAccess(raw)
			if err != nil {
				switch {
				case errors.Is(err, tokens.ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				case errors.Is(err, tokens.ErrWrongTokenKind):
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token type")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}

			id, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxIdentity, Identity{
				UserID:         id,
				Username:       claims.Username,
				Email:          claims.Email,
				RoleID:         claims.RoleID,
				Role:           claims.Role,
				MunicipalityID: claims.MunicipalityID,
			})
			return next(c)
		}
	}
}
