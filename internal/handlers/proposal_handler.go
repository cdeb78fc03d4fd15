package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/proposals"
	"github.com/creatormatch/creatormatch_be/internal/state"
)

// InboxView is the view a client switches to after a proposal opens or
// extends a conversation.
const InboxView = "inbox"

type ProposalHandler struct {
	Proposals *proposals.Service
	Views     state.ViewStore
	Log       *zap.Logger
}

func NewProposalHandler(svc *proposals.Service, views state.ViewStore, log *zap.Logger) *ProposalHandler {
	return &ProposalHandler{Proposals: svc, Views: views, Log: log}
}

// Submit answers 201 whenever the proposal row exists. When the creator
// could not be messaged the body carries delivered=false and no
// conversation.
func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	var req proposals.SubmitInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	me := middleware.CurrentUser(c)
	ctx := c.UserContext()

	sub, err := h.Proposals.Submit(ctx, me, projectID, req)
	if errors.Is(err, proposals.ErrNotificationNotDelivered) && sub != nil {
		return ok(c, fiber.StatusCreated, proposals.ErrNotificationNotDelivered.Error(), fiber.Map{
			"proposal":  sub.Proposal,
			"delivered": false,
		})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}

	if err := h.Views.Set(ctx, me.ID, InboxView); err != nil {
		h.Log.Warn("failed to persist active view",
			zap.String("user_id", me.ID.String()),
			zap.Error(err))
	}

	return ok(c, fiber.StatusCreated, "Proposal sent", fiber.Map{
		"proposal":               sub.Proposal,
		"conversation":           sub.Conversation,
		"message":                sub.Message,
		"delivered":              true,
		"active_view":            InboxView,
		"active_conversation_id": sub.Conversation.ID,
	})
}

type decideReq struct {
	Status string `json:"status"`
}

func (h *ProposalHandler) Decide(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	var req decideReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	decision := models.ProposalStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	p, err := h.Proposals.Decide(c.UserContext(), middleware.CurrentUser(c), id, decision)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "Proposal "+string(p.Status), p)
}

func (h *ProposalHandler) ListForProject(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	list, err := h.Proposals.ListForProject(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

// Mine lists the proposals the caller may see: their own as a freelancer,
// those on their projects as a creator, all of them as an admin.
func (h *ProposalHandler) Mine(c *fiber.Ctx) error {
	list, err := h.Proposals.VisibleTo(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}
