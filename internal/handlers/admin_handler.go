package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
	"github.com/creatormatch/creatormatch_be/internal/services/users"
)

type AdminHandler struct {
	Users    *users.Service
	Notifier Notifier
	Log      *zap.Logger
}

func NewAdminHandler(us *users.Service, notifier Notifier, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Users: us, Notifier: notifier, Log: log}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	list, err := h.Users.List(c.UserContext())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

// ToggleStatus blocks or unblocks a user. A freshly blocked user's open
// sockets are signed out.
func (h *AdminHandler) ToggleStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	ctx := c.UserContext()
	u, err := h.Users.ToggleStatus(ctx, middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	if u.Status == models.UserBlocked {
		h.Notifier.Notify(ctx, u.ID, session.EventSignedOut, session.State{Event: session.EventSignedOut})
	}
	return ok(c, fiber.StatusOK, "User "+string(u.Status), u)
}
