package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starter-kit/account-service/internal/domain"
	apperrors "github.com/starter-kit/account-service/pkg/util"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// RequireAuthenticated redirects anonymous visitors to the login page.
// Being logged out is a navigational outcome, not an error.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireRoles permits only authenticated users whose role is in the allowed
// set. Anonymous visitors get the login redirect; authenticated users with
// the wrong role get a forbidden error. The two outcomes are never conflated.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
