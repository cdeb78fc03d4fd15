package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/models"
)

const CurrentUserKey = "currentUser"

// LoadCurrentUser resolves the authenticated user row and refuses blocked
// accounts. The role is read from the row, not the token, so a profile role
// switch takes effect without a new login.
func LoadCurrentUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := SessionUserID(c)
		if uid == "" {
			return fiber.ErrUnauthorized
		}

		var u models.User
		if err := db.WithContext(c.UserContext()).First(&u, "id = ?", uid).Error; err != nil {
			return fiber.ErrUnauthorized
		}
		if u.IsBlocked() {
			return fiber.NewError(fiber.StatusForbidden, "account blocked")
		}

		c.Locals(CurrentUserKey, &u)
		c.Locals(RoleKey, string(u.Type))
		return c.Next()
	}
}

// CurrentUser returns the user stored by LoadCurrentUser, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(CurrentUserKey).(*models.User)
	return u
}
