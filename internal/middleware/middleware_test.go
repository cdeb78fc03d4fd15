package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatormatch/creatormatch_be/internal/utils"
)

const secret = "middleware-test-secret"

func echoSession(c *fiber.Ctx) error {
	role, _ := c.Locals(RoleKey).(string)
	return c.SendString(SessionUserID(c) + "|" + role)
}

func call(t *testing.T, app *fiber.App, setup func(r *http.Request)) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func withCookie(tok string) func(r *http.Request) {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderCookie, TokenCookie+"="+tok) }
}

func TestOptionalJWT(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalJWT(secret), echoSession)

	tok, err := utils.SignJWT(secret, "u-1", "Creator", 5)
	require.NoError(t, err)

	status, body := call(t, app, withCookie(tok))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-1|creator", body)

	status, body = call(t, app, func(r *http.Request) {
		r.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-1|creator", body)

	status, body = call(t, app, withCookie("garbage"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "|", body)

	status, body = call(t, app, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "|", body)
}

func TestRequiredJWTChain(t *testing.T) {
	app := fiber.New()
	app.Get("/", JWTFromCookie(secret), AttachJWTLocals(), echoSession)

	tok, err := utils.SignJWT(secret, "u-2", "freelancer", 5)
	require.NoError(t, err)
	status, body := call(t, app, withCookie(tok))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-2|freelancer", body)

	noSubject, err := utils.SignJWT(secret, "  ", "freelancer", 5)
	require.NoError(t, err)
	status, _ = call(t, app, withCookie(noSubject))
	assert.Equal(t, http.StatusUnauthorized, status)

	other, err := utils.SignJWT("another-secret", "u-2", "freelancer", 5)
	require.NoError(t, err)
	status, _ = call(t, app, withCookie(other))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOptionalJWT_IgnoresTokenWithoutSubject(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalJWT(secret), echoSession)

	tok, err := utils.SignJWT(secret, "", "admin", 5)
	require.NoError(t, err)
	status, body := call(t, app, withCookie(tok))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "|", body)
}
