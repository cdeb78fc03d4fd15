package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/assistant"
	"github.com/creatormatch/creatormatch_be/internal/services/content"
	"github.com/creatormatch/creatormatch_be/internal/services/messaging"
	"github.com/creatormatch/creatormatch_be/internal/services/opportunities"
	"github.com/creatormatch/creatormatch_be/internal/services/projects"
	"github.com/creatormatch/creatormatch_be/internal/services/proposals"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
	"github.com/creatormatch/creatormatch_be/internal/services/users"
	"github.com/creatormatch/creatormatch_be/internal/state"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

func ok(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func validationFail(c *fiber.Ctx, errs utils.FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

var statusBySentinel = []struct {
	status int
	errs   []error
}{
	{fiber.StatusBadRequest, []error{
		proposals.ErrInvalidDecision,
		messaging.ErrEmptyMessage,
		messaging.ErrSelfConversation,
		opportunities.ErrEmptyQuery,
		assistant.ErrEmptyMessage,
		state.ErrInvalidView,
	}},
	{fiber.StatusUnauthorized, []error{
		proposals.ErrUnauthenticated,
		session.ErrInvalidCredentials,
	}},
	{fiber.StatusForbidden, []error{
		proposals.ErrUserBlocked,
		proposals.ErrCreatorCannotApply,
		proposals.ErrOwnProject,
		proposals.ErrForbidden,
		projects.ErrForbidden,
		projects.ErrCreatorsOnly,
		session.ErrUserBlocked,
		users.ErrSelfBlock,
		users.ErrAdminOnly,
		messaging.ErrNotParticipant,
	}},
	{fiber.StatusNotFound, []error{
		proposals.ErrProjectNotFound,
		proposals.ErrProposalNotFound,
		projects.ErrProjectNotFound,
		messaging.ErrConversationNotFound,
		users.ErrUserNotFound,
		session.ErrUserNotFound,
		content.ErrAnnouncementNotFound,
		content.ErrPostNotFound,
	}},
	{fiber.StatusConflict, []error{
		proposals.ErrDuplicateProposal,
		proposals.ErrAlreadyDecided,
		proposals.ErrProjectNotOpen,
		projects.ErrInvalidTransition,
	}},
	{fiber.StatusServiceUnavailable, []error{
		opportunities.ErrUnavailable,
	}},
}

// statusFor maps a service error to its HTTP status and public message.
// Unknown errors become a generic 500.
func statusFor(err error) (int, string) {
	for _, group := range statusBySentinel {
		for _, sentinel := range group.errs {
			if errors.Is(err, sentinel) {
				return group.status, sentinel.Error()
			}
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// respondError writes err in the standard failure shape.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var fields utils.FieldErrors
	if errors.As(err, &fields) {
		return validationFail(c, fields)
	}

	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return fail(c, status, message)
}

// ErrorHandler renders errors returned by middleware and stray handler
// errors in the same shape as every other failure.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respondError(c, log, err)
	}
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func queryInt64(c *fiber.Ctx, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return &n, nil
}

func invalidBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "invalid body")
}

// viewer resolves the signed-in user on routes where a session is
// optional. A missing, stale or blocked session reads as anonymous.
func viewer(c *fiber.Ctx, sessions *session.Service) *models.User {
	uid := middleware.SessionUserID(c)
	if uid == "" {
		return nil
	}
	u, err := sessions.Current(c.UserContext(), uid)
	if err != nil {
		return nil
	}
	return u
}
