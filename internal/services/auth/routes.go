package auth

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes регистрирует маршруты в Fiber
func (h *Handler) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)

	// Защищенные маршруты
	authGroup.Post("/logout", h.Logout, authMiddleware)
	app.Get("/api/session", h.Session, authMiddleware)

	profile := app.Group("/api/profile", authMiddleware)
	profile.Get("/", h.Profile)
	profile.Put("/phone", h.UpdatePhone)
}
