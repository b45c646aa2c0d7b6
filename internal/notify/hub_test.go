package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/utils"
)

func newTestHub(buffer int) *Hub {
	logger, _ := test.NewNullLogger()
	return NewHub(logger, buffer)
}

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	hub := newTestHub(4)
	a := hub.Subscribe("1")
	b := hub.Subscribe("")

	rev := hub.ListingsChanged(42)
	assert.Equal(t, int64(1), rev)
	assert.Equal(t, int64(1), hub.Revision())

	for _, sub := range []*Subscription{a, b} {
		ev := <-sub.Events()
		assert.Equal(t, EventListingsChanged, ev.Type)
		assert.Equal(t, int64(42), ev.ListingID)
		assert.Equal(t, int64(1), ev.Revision)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestSendToUserTargetsOnlyThatUser(t *testing.T) {
	hub := newTestHub(4)
	alice := hub.Subscribe("alice")
	bob := hub.Subscribe("bob")

	hub.SendToUser("bob", Event{Type: EventNewMessage, ChatID: "alice-bob"})
	hub.SendToUser("carol", Event{Type: EventNewMessage})

	ev := <-bob.Events()
	assert.Equal(t, "alice-bob", ev.ChatID)
	assert.Empty(t, alice.Events())
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := newTestHub(1)
	sub := hub.Subscribe("1")

	hub.ListingsChanged(1)
	hub.ListingsChanged(2)

	assert.Equal(t, 0, hub.Subscribers())
	_, ok := <-sub.Events()
	assert.True(t, ok)
	_, ok = <-sub.Events()
	assert.False(t, ok)

	// повторная отписка безопасна
	hub.Unsubscribe(sub.ID)
}

func TestShutdownClosesSubscriptions(t *testing.T) {
	hub := newTestHub(1)
	sub := hub.Subscribe("1")
	hub.Shutdown()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestPoll(t *testing.T) {
	hub := newTestHub(4)
	jwtService := utils.NewJWTService("secret")
	logger, _ := test.NewNullLogger()

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	hub.SetupRoutes(app, middleware.AuthMiddleware(jwtService))

	token, err := jwtService.GenerateToken("7")
	require.NoError(t, err)

	poll := func(timeout string) map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/events?timeout="+timeout, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	body := poll("50ms")
	assert.Empty(t, body["events"])

	go func() {
		assert.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 500*time.Millisecond, 5*time.Millisecond)
		hub.SendToUser("7", Event{Type: EventNewMessage, ChatID: "7-8"})
	}()

	body = poll("900ms")
	events, ok := body["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "new_message", events[0].(map[string]any)["type"])
	assert.Equal(t, 0, hub.Subscribers())
}
