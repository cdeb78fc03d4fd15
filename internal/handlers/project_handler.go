package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/feed"
	"github.com/creatormatch/creatormatch_be/internal/services/projects"
)

type ProjectHandler struct {
	Projects *projects.Service
	Log      *zap.Logger
}

func NewProjectHandler(svc *projects.Service, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{Projects: svc, Log: log}
}

// List serves the feed. Every status is listed unless ?status= names one;
// "all" is accepted as an explicit no-op.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	minBudget, err := queryInt64(c, "min_budget")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	status := models.ProjectStatus(strings.ToLower(c.Query("status")))
	if status == feed.Wildcard {
		status = ""
	}

	f := feed.Filter{
		Category:   c.Query("category"),
		SearchTerm: strings.TrimSpace(c.Query("search")),
		MinBudget:  minBudget,
		Experience: c.Query("experience"),
	}

	list, err := h.Projects.List(c.UserContext(), status, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	p, err := h.Projects.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", p)
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req projects.CreateInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	p, err := h.Projects.Create(c.UserContext(), middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusCreated, "Project published", p)
}

func (h *ProjectHandler) Complete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	p, err := h.Projects.Complete(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Project completed", p)
}

func (h *ProjectHandler) Close(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	p, err := h.Projects.Close(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Project closed", p)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	if err := h.Projects.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Project deleted", nil)
}

func (h *ProjectHandler) ToggleSave(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	saved, err := h.Projects.ToggleSave(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"saved": saved})
}

func (h *ProjectHandler) Saved(c *fiber.Ctx) error {
	list, err := h.Projects.ListSaved(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

// Mine lists the projects the caller posted.
func (h *ProjectHandler) Mine(c *fiber.Ctx) error {
	list, err := h.Projects.ListByCreator(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}
