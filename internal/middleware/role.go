package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles must run after AttachJWTLocals (and LoadCurrentUser when the
// stored role should win over the token claim).
func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(RoleKey).(string)
		if role == "" {
			return fiber.ErrUnauthorized
		}

		if !allowedSet[strings.ToLower(strings.TrimSpace(role))] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: insufficient role")
		}

		return c.Next()
	}
}
