package notify

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

const (
	defaultPollTimeout = 25 * time.Second
	maxPollTimeout     = 60 * time.Second
)

// SetupRoutes настраивает маршрут long-polling событий
func (h *Hub) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	app.Get("/api/events", h.Poll, authMiddleware)
}

// Poll ждёт первое событие для пользователя или истечения таймаута
func (h *Hub) Poll(c fiber.Ctx) error {
	timeout := defaultPollTimeout
	if raw := c.Query("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return apperrors.NewValidationError("timeout", "Неверный таймаут ожидания")
		}
		timeout = min(d, maxPollTimeout)
	}

	sub := h.Subscribe(middleware.UserID(c))
	defer h.Unsubscribe(sub.ID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	events := []Event{}
	select {
	case ev, ok := <-sub.Events():
		if ok {
			events = append(events, ev)
			events = drain(sub, events)
		}
	case <-timer.C:
	}

	return c.JSON(fiber.Map{
		"events":   events,
		"revision": h.Revision(),
	})
}

// drain забирает уже накопившиеся события без ожидания
func drain(sub *Subscription, events []Event) []Event {
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
