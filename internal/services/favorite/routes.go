package favorite

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API избранного
func (h *Handler) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	// Все маршруты избранного требуют авторизации
	api := app.Group("/api/favorites", authMiddleware)

	api.Get("/", h.GetFavorites)
	api.Post("/", h.AddToFavorites)
	api.Delete("/:id", h.RemoveFromFavorites)
	api.Get("/:id/check", h.CheckFavorite)
}
