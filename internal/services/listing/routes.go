package listing

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API объявлений
func (h *Handler) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	api := app.Group("/api/listings")

	// Публичные маршруты
	api.Get("/", h.GetListings)
	api.Get("/changes", h.GetChanges)

	// Защищенные маршруты
	api.Get("/my", h.GetMyListings, authMiddleware)
	api.Post("/", h.CreateListing, authMiddleware)
	api.Post("/availability/validate", h.ValidateAvailability, authMiddleware)
	api.Delete("/:id", h.DeleteListing, authMiddleware)

	// Маршрут для получения одного объявления по ID
	api.Get("/:id", h.GetListing)
}
