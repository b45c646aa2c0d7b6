package chat

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API чатов
func (h *Handler) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	// Все маршруты чатов требуют авторизации
	api := app.Group("/api/chats", authMiddleware)

	api.Get("/", h.GetChats)
	api.Get("/:peerId/messages", h.GetChatMessages)
	api.Post("/:peerId/messages", h.SendMessage)
}
