package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/creatormatch/creatormatch_be/internal/utils"
)

// Locals keys set once a session token has been verified.
const (
	TokenKey  = "user"
	UserIDKey = "userId"
	RoleKey   = "role"
)

// attachSession copies the subject and role of a verified token onto c.
// It reports false when the token does not carry our claims or names no user.
func attachSession(c *fiber.Ctx, token *jwt.Token) bool {
	if token == nil {
		return false
	}
	claims, ok := token.Claims.(*utils.Claims)
	if !ok {
		return false
	}
	uid := strings.TrimSpace(claims.UserID)
	if uid == "" {
		return false
	}

	c.Locals(TokenKey, token)
	c.Locals(UserIDKey, uid)
	c.Locals(RoleKey, strings.ToLower(strings.TrimSpace(claims.Role)))
	return true
}

// AttachJWTLocals runs after JWTFromCookie and rejects tokens without a
// subject.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := c.Locals(TokenKey).(*jwt.Token)
		if !attachSession(c, token) {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}

// SessionUserID is the user id of the verified session, or "" for anonymous
// requests.
func SessionUserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(UserIDKey).(string)
	return uid
}
