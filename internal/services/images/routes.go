package images

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршрут выдачи фотографий
func SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	app.Post("/api/upload/placeholders", UploadPlaceholders, authMiddleware)
}
