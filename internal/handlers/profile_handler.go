package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
	"github.com/creatormatch/creatormatch_be/internal/services/users"
)

type ProfileHandler struct {
	Users    *users.Service
	Sessions *session.Service
	Log      *zap.Logger
}

func NewProfileHandler(us *users.Service, sessions *session.Service, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{Users: us, Sessions: sessions, Log: log}
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, "", middleware.CurrentUser(c))
}

func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	var req users.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	u, err := h.Users.UpdateProfile(c.UserContext(), middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Profile updated", u)
}

// Public returns another user's profile. Email and status are left out
// unless the caller is that user or an admin.
func (h *ProfileHandler) Public(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	u, err := h.Users.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", u.VisibleTo(viewer(c, h.Sessions)))
}
