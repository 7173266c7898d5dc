package middleware

import (
	"context"
	"net/http"

	"printforge/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BillingClaims are the claims issued by the identity service: the
// subject carries the user id, the role claim the caller's role.
type BillingClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ResolveIdentity runs after the echo-jwt middleware has validated the
// token. It lifts the user id and role out of the claims into the
// request context so handlers and services receive an explicit
// identity instead of relying on ambient session state.
func ResolveIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			claims, ok := token.Claims.(*BillingClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user_id in token")
			}

			role := claims.Role
			if role == "" {
				role = "user"
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.RoleKey, role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
