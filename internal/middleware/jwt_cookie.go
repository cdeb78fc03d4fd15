package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/creatormatch/creatormatch_be/internal/utils"
)

const TokenCookie = "cm_token"

// tokenFromRequest reads the session token from the cookie, falling back to
// an Authorization: Bearer header for non-browser clients.
func tokenFromRequest(c *fiber.Ctx) string {
	if tok := c.Cookies(TokenCookie); tok != "" {
		return tok
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		token, _, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(TokenKey, token)
		return c.Next()
	}
}

// OptionalJWT attaches the session when a valid token is present and lets
// anonymous requests through untouched.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			return c.Next()
		}
		if token, _, err := utils.ParseJWT(secret, tokenStr); err == nil {
			attachSession(c, token)
		}
		return c.Next()
	}
}
