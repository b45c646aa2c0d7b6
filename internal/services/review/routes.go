package review

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты отзывов
func (h *Handler) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	app.Get("/api/listings/:id/reviews", h.GetReviews)
	app.Post("/api/listings/:id/reviews", h.AddReview, authMiddleware)
}
