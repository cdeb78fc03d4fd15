package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/realtime"
	"github.com/creatormatch/creatormatch_be/internal/services/messaging"
	"github.com/creatormatch/creatormatch_be/internal/services/users"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

// Notifier pushes realtime events to a user's sockets.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload interface{})
}

type ChatHandler struct {
	Messages  *messaging.Service
	Users     *users.Service
	Notifier  Notifier
	Hub       *realtime.Hub
	JWTSecret string
	Log       *zap.Logger
}

func NewChatHandler(msgs *messaging.Service, us *users.Service, notifier Notifier, hub *realtime.Hub, secret string, log *zap.Logger) *ChatHandler {
	return &ChatHandler{Messages: msgs, Users: us, Notifier: notifier, Hub: hub, JWTSecret: secret, Log: log}
}

func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	list, err := h.Messages.ListForUser(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

type startConversationReq struct {
	UserID string `json:"user_id"`
}

// StartConversation opens (or reopens) the conversation with another user
// without sending anything.
func (h *ChatHandler) StartConversation(c *fiber.Ctx) error {
	var req startConversationReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	targetID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		errs := utils.FieldErrors{}
		errs.Add("user_id", "user_id must be a valid id")
		return validationFail(c, errs)
	}

	ctx := c.UserContext()
	target, err := h.Users.Get(ctx, targetID)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	me := middleware.CurrentUser(c)
	conv, created, err := h.Messages.GetOrCreate(ctx,
		messaging.Party{ID: me.ID, Name: me.FullName()},
		messaging.Party{ID: target.ID, Name: target.FullName()},
	)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return ok(c, status, "", conv)
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	conv, err := h.Messages.Get(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", conv.Messages)
}

type sendMessageReq struct {
	Text string `json:"text"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	me := middleware.CurrentUser(c)
	ctx := c.UserContext()

	conv, msg, err := h.Messages.Send(ctx, me.ID, id, req.Text)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	payload := fiber.Map{
		"conversation_id": conv.ID,
		"message":         msg,
	}
	h.Notifier.Notify(ctx, conv.Other(me.ID), "new_message", payload)
	h.Notifier.Notify(ctx, me.ID, "new_message", payload)

	return ok(c, fiber.StatusCreated, "", msg)
}

func (h *ChatHandler) MarkAsRead(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	conv, err := h.Messages.MarkRead(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", conv)
}

func (h *ChatHandler) GetUnreadTotal(c *fiber.Ctx) error {
	total, err := h.Messages.UnreadTotal(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, "", total)
}

// UpgradeWebSocket authenticates the socket handshake from the token
// cookie, a bearer header or a token query parameter.
func (h *ChatHandler) UpgradeWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tok := c.Cookies(middleware.TokenCookie)
	if tok == "" {
		tok = strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
	}
	if tok == "" {
		tok = c.Query("token")
	}
	if tok == "" {
		return fiber.ErrUnauthorized
	}

	_, claims, err := utils.ParseJWT(h.JWTSecret, tok)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	uid, err := uuid.Parse(strings.TrimSpace(claims.UserID))
	if err != nil {
		return fiber.ErrUnauthorized
	}

	c.Locals(middleware.UserIDKey, uid)
	return c.Next()
}

func (h *ChatHandler) WebSocketHandler(conn *websocket.Conn) {
	uid, found := conn.Locals(middleware.UserIDKey).(uuid.UUID)
	if !found {
		conn.Close()
		return
	}
	realtime.Serve(h.Hub, conn, uid, h.Log)
}
