package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// ContextRole is set by RequireRole once the caller's role has been looked up.
const ContextRole = "role"

// ProfileFinder loads the caller's current account.
type ProfileFinder interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// RequireRole enforces role-based access control. The role is read from the
// store on every request, so demotions apply to tokens already issued.
// Must run after Auth.
func RequireRole(finder ProfileFinder, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ContextUserID).(string)
			if userID == "" {
				return domain.ErrUnauthorized
			}

			user, err := finder.Profile(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrUnauthorized
				}
				return err
			}

			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}
			c.Set(ContextRole, user.Role)
			return next(c)
		}
	}
}

// RequireAdmin restricts a route to admin accounts.
func RequireAdmin(finder ProfileFinder) echo.MiddlewareFunc {
	return RequireRole(finder, domain.RoleAdmin)
}
