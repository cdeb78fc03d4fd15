package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/services/content"
)

type ContentHandler struct {
	Content *content.Service
	Log     *zap.Logger
}

func NewContentHandler(svc *content.Service, log *zap.Logger) *ContentHandler {
	return &ContentHandler{Content: svc, Log: log}
}

// Announcements lists the active announcements.
func (h *ContentHandler) Announcements(c *fiber.Ctx) error {
	list, err := h.Content.Announcements(c.UserContext(), true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

// AllAnnouncements includes the switched-off ones, for the admin panel.
func (h *ContentHandler) AllAnnouncements(c *fiber.Ctx) error {
	list, err := h.Content.Announcements(c.UserContext(), false)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

type announcementReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *ContentHandler) CreateAnnouncement(c *fiber.Ctx) error {
	var req announcementReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	a, err := h.Content.CreateAnnouncement(c.UserContext(), req.Title, req.Content)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusCreated, "Announcement published", a)
}

func (h *ContentHandler) ToggleAnnouncement(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	a, err := h.Content.ToggleAnnouncement(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", a)
}

func (h *ContentHandler) Posts(c *fiber.Ctx) error {
	list, err := h.Content.Posts(c.UserContext())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

func (h *ContentHandler) PostBySlug(c *fiber.Ctx) error {
	p, err := h.Content.PostBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", p)
}

func (h *ContentHandler) CreatePost(c *fiber.Ctx) error {
	var req content.PostInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	p, err := h.Content.CreatePost(c.UserContext(), middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusCreated, "Post published", p)
}

func (h *ContentHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	var req content.PostInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	p, err := h.Content.UpdatePost(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Post updated", p)
}

func (h *ContentHandler) DeletePost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	if err := h.Content.DeletePost(c.UserContext(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Post deleted", nil)
}
