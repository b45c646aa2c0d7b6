package listing

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/store"
	"github.com/rajivgeraev/sudak-api/internal/utils"
)

type testAPI struct {
	app *fiber.App
	f   *fixture
	jwt *utils.JWTService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	f := newFixture(t, store.NewMemory(store.DefaultQuotaBytes))
	jwtService := utils.NewJWTService("secret")
	logger, _ := test.NewNullLogger()

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	NewHandler(f.repo, f.hub).SetupRoutes(app, middleware.AuthMiddleware(jwtService))
	return &testAPI{app: app, f: f, jwt: jwtService}
}

func (a *testAPI) do(t *testing.T, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := a.jwt.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestListingLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	api.f.seedUser(t, "host", 1500)
	api.f.seedUser(t, "guest", 1500)

	status, body := api.do(t, http.MethodPost, "/api/listings", "", validInput())
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(t, http.MethodPost, "/api/listings", "host", validInput())
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(0), body["balance"])
	id := int64(body["listing"].(map[string]any)["id"].(float64))
	path := "/api/listings/" + strconv.FormatInt(id, 10)

	status, body = api.do(t, http.MethodPost, "/api/listings", "host", validInput())
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "insufficient_balance", body["code"])

	status, body = api.do(t, http.MethodGet, "/api/listings?type=house&distanceToSea="+url.QueryEscape("До 300м"), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["revision"])

	status, body = api.do(t, http.MethodGet, "/api/listings?amenities=wifi,pool", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["total"])

	status, body = api.do(t, http.MethodGet, "/api/listings/changes?since=0", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["changed"])

	status, body = api.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["views"])

	status, body = api.do(t, http.MethodGet, "/api/listings/my", "host", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["listings"], 1)
	assert.NotEmpty(t, body["next_allowed_date"])

	status, body = api.do(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["code"])

	status, _ = api.do(t, http.MethodGet, "/api/listings/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(t, http.MethodDelete, path, "guest", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["code"])

	status, _ = api.do(t, http.MethodDelete, path, "host", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(t, http.MethodGet, "/api/listings/changes?since=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["revision"])
}

func TestValidateAvailabilityEndpoint(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodPost, "/api/listings/availability/validate", "host",
		map[string]any{"startDate": "2024-08-10", "endDate": "2024-08-01", "price": 3000})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "date_range_invalid", body["code"])

	status, body = api.do(t, http.MethodPost, "/api/listings/availability/validate", "host",
		map[string]any{"startDate": "2024-08-01", "endDate": "2024-08-10", "price": 3000})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
}
