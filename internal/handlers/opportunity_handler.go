package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/services/opportunities"
)

type OpportunityHandler struct {
	Search *opportunities.Searcher
	Log    *zap.Logger
}

func NewOpportunityHandler(search *opportunities.Searcher, log *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{Search: search, Log: log}
}

// Fetch returns the next page of external opportunities for q. An
// unreachable search answers 503 with no items.
func (h *OpportunityHandler) Fetch(c *fiber.Ctx) error {
	me := middleware.CurrentUser(c)

	page, err := h.Search.Fetch(c.UserContext(), me.ID.String(), c.Query("q"), c.QueryInt("start", 0))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", page)
}

// Reset starts a query over, forgetting which links were already shown.
func (h *OpportunityHandler) Reset(c *fiber.Ctx) error {
	me := middleware.CurrentUser(c)

	if err := h.Search.Reset(c.UserContext(), me.ID.String(), c.Query("q")); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", nil)
}
