package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/assistant"
	"github.com/creatormatch/creatormatch_be/internal/services/feed"
	"github.com/creatormatch/creatormatch_be/internal/services/projects"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
)

type AssistantHandler struct {
	Assistant *assistant.Service
	Projects  *projects.Service
	Sessions  *session.Service
	Log       *zap.Logger
}

func NewAssistantHandler(a *assistant.Service, ps *projects.Service, sessions *session.Service, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{Assistant: a, Projects: ps, Sessions: sessions, Log: log}
}

type assistantReq struct {
	History []assistant.Turn `json:"history"`
	Message string           `json:"message"`
}

func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var req assistantReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ctx := c.UserContext()
	active, err := h.Projects.List(ctx, models.ProjectActive, feed.Filter{})
	if err != nil {
		h.Log.Warn("assistant running without project context", zap.Error(err))
		active = nil
	}

	reply, err := h.Assistant.Chat(ctx, viewer(c, h.Sessions), active, req.History, req.Message)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", reply)
}
