package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
	"github.com/creatormatch/creatormatch_be/internal/state"
)

type StateHandler struct {
	Loader   *state.Loader
	Sessions *session.Service
	Log      *zap.Logger
}

func NewStateHandler(loader *state.Loader, sessions *session.Service, log *zap.Logger) *StateHandler {
	return &StateHandler{Loader: loader, Sessions: sessions, Log: log}
}

// Bootstrap returns the snapshot a client starts from. Anonymous callers get
// the public part only.
func (h *StateHandler) Bootstrap(c *fiber.Ctx) error {
	snap, err := h.Loader.Load(c.UserContext(), viewer(c, h.Sessions))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", snap)
}

func (h *StateHandler) GetView(c *fiber.Ctx) error {
	view, err := h.Loader.Views().Get(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"view": view})
}

type viewReq struct {
	View string `json:"view"`
}

func (h *StateHandler) PutView(c *fiber.Ctx) error {
	var req viewReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.Loader.Views().Set(c.UserContext(), middleware.CurrentUser(c).ID, req.View); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"view": req.View})
}
