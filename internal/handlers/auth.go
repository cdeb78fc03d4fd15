package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
	"github.com/creatormatch/creatormatch_be/internal/state"
)

type AuthHandler struct {
	Sessions     *session.Service
	State        *state.Loader
	SecureCookie bool
	Log          *zap.Logger
}

func NewAuthHandler(sessions *session.Service, loader *state.Loader, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Sessions: sessions, State: loader, SecureCookie: secureCookie, Log: log}
}

func setTokenCookie(c *fiber.Ctx, token string, expiresMin int, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		MaxAge:   expiresMin * 60,
	})
}

func clearTokenCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req session.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	u, token, err := h.Sessions.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	setTokenCookie(c, token, h.Sessions.ExpiresMin(), h.SecureCookie)
	return ok(c, fiber.StatusCreated, "Registered", fiber.Map{
		"event": session.EventSignedIn,
		"user":  u,
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	u, token, err := h.Sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	setTokenCookie(c, token, h.Sessions.ExpiresMin(), h.SecureCookie)
	return ok(c, fiber.StatusOK, "Signed in", fiber.Map{
		"event": session.EventSignedIn,
		"user":  u,
	})
}

// Logout always clears the cookie. When the request still carries a valid
// session, the user's persisted state is reset and their sockets are told.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearTokenCookie(c, h.SecureCookie)

	if uid := middleware.SessionUserID(c); uid != "" {
		if id, err := uuid.Parse(uid); err == nil {
			if err := h.State.Reset(c.UserContext(), id); err != nil {
				h.Log.Warn("failed to reset state on logout",
					zap.String("user_id", uid),
					zap.Error(err))
			}
			h.Sessions.Logout(c.UserContext(), id)
		}
	}

	return ok(c, fiber.StatusOK, "Signed out", fiber.Map{
		"event": session.EventSignedOut,
	})
}

// Session reports the current session without failing for anonymous callers.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, "", session.State{
		Event: session.EventInitialSession,
		User:  viewer(c, h.Sessions),
	})
}
