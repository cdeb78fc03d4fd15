package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/creatormatch/creatormatch_be/internal/services/session"
)

const (
	oauthStateCookie = "oauth_state"
	oauthNextCookie  = "oauth_next"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type GoogleOAuthHandler struct {
	Sessions        *session.Service
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	SecureCookie    bool
	Log             *zap.Logger
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) shortCookie(c *fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   maxAge,
	})
}

// safeNext keeps post-login redirects on the frontend.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)

	h.shortCookie(c, oauthStateCookie, st, 10*60)
	h.shortCookie(c, oauthNextCookie, safeNext(c.Query("next", "/")), 10*60)

	return c.Redirect(h.oauthCfg().AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleProfile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *GoogleOAuthHandler) loginError(c *fiber.Ctx, msg string) error {
	return c.Redirect(h.FrontendBaseURL+"/login?err="+url.QueryEscape(msg), http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return fail(c, fiber.StatusBadRequest, "missing code or state")
	}

	stCookie := c.Cookies(oauthStateCookie)
	next := safeNext(c.Cookies(oauthNextCookie))
	if stCookie == "" || stCookie != state {
		return fail(c, fiber.StatusBadRequest, "invalid state")
	}

	h.shortCookie(c, oauthStateCookie, "", -1)
	h.shortCookie(c, oauthNextCookie, "", -1)

	ctx := c.UserContext()
	tok, err := h.oauthCfg().Exchange(ctx, code)
	if err != nil {
		h.Log.Warn("google code exchange failed", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "failed to exchange code")
	}

	resp, err := h.oauthCfg().Client(ctx, tok).Get(googleUserInfo)
	if err != nil {
		h.Log.Warn("google userinfo request failed", zap.Error(err))
		return fail(c, fiber.StatusBadGateway, "failed to fetch profile")
	}
	defer resp.Body.Close()

	var gp googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&gp); err != nil {
		return fail(c, fiber.StatusBadGateway, "failed to decode profile")
	}

	_, jwtToken, err := h.Sessions.OAuthUpsert(ctx, gp.Email, gp.Name, gp.Picture)
	switch {
	case errors.Is(err, session.ErrUserBlocked):
		return h.loginError(c, "account blocked")
	case errors.Is(err, session.ErrInvalidCredentials):
		return h.loginError(c, "google account has no email")
	case err != nil:
		h.Log.Error("oauth sign-in failed", zap.Error(err))
		return h.loginError(c, "sign-in failed")
	}

	setTokenCookie(c, jwtToken, h.Sessions.ExpiresMin(), h.SecureCookie)
	return c.Redirect(h.FrontendBaseURL+next, http.StatusTemporaryRedirect)
}
