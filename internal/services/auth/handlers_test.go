package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/utils"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc, _ := newTestService(t)
	jwtService := utils.NewJWTService("secret")
	logger, _ := test.NewNullLogger()

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	NewHandler(svc, jwtService).SetupRoutes(app, middleware.AuthMiddleware(jwtService))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestAuthFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		`{"email":"host@example.com","password":"secret1","name":"Олег","role":"host"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, float64(1500), body["user"].(map[string]any)["balance"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		`{"email":"host@example.com","password":"secret1","name":"Олег","role":"host"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_email", body["code"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/profile", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "host@example.com", body["email"])
	assert.NotContains(t, body, "password")

	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/phone", token, `{"phone":"+7 900"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "+7 900", body["phone"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/session", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "host@example.com", body["user"].(map[string]any)["email"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/session", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["user"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", `{"email":"host@example.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body["code"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", `{"email":"host@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "+7 900", body["user"].(map[string]any)["phone"])
}

func TestProfileRequiresToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["code"])
}

func TestSessionRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		`{"email":"host@example.com","password":"secret1","name":"Олег","role":"host"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)

	resp, body = doJSON(t, app, http.MethodGet, "/api/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["code"])
	assert.NotContains(t, body, "user")

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["code"])

	// токен другого пользователя не видит и не закрывает чужую сессию
	other, err := utils.NewJWTService("secret").GenerateToken("someone-else")
	require.NoError(t, err)

	resp, body = doJSON(t, app, http.MethodGet, "/api/session", other, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["user"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", other, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/session", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "host@example.com", body["user"].(map[string]any)["email"])
}
