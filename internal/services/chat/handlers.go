package chat

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/db"
	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// UserLookup находит участников переписки
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// Handler обрабатывает HTTP запросы чатов
type Handler struct {
	svc   *Service
	users UserLookup
}

// NewHandler создаёт новый экземпляр Handler
func NewHandler(svc *Service, users UserLookup) *Handler {
	return &Handler{svc: svc, users: users}
}

// peerKey проверяет собеседника и возвращает ключ беседы
func (h *Handler) peerKey(ctx context.Context, c fiber.Ctx) (string, error) {
	userID := middleware.UserID(c)
	peerID := c.Params("peerId")
	if peerID == "" || peerID == userID {
		return "", apperrors.NewValidationError("peerId", "Неверный собеседник")
	}
	if _, err := h.users.GetUser(ctx, peerID); err != nil {
		return "", err
	}
	return ConversationKey(userID, peerID), nil
}

// GetChats возвращает список бесед пользователя
func (h *Handler) GetChats(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	conversations, err := h.svc.ListConversations(ctx, middleware.UserID(c), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"chats": conversations})
}

// GetChatMessages возвращает сообщения беседы с собеседником
func (h *Handler) GetChatMessages(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	key, err := h.peerKey(ctx, c)
	if err != nil {
		return err
	}
	messages, err := h.svc.Messages(ctx, key)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"chat_id": key, "messages": messages})
}

// SendMessage отправляет сообщение собеседнику
func (h *Handler) SendMessage(c fiber.Ctx) error {
	var payload struct {
		Text          string `json:"text"`
		PropertyTitle string `json:"propertyTitle"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат данных")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	key, err := h.peerKey(ctx, c)
	if err != nil {
		return err
	}
	sender, err := h.users.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		return apperrors.ErrUnauthorized.Wrap(err)
	}

	msg, err := h.svc.Send(ctx, key, sender.ID, sender.Name, payload.Text, payload.PropertyTitle)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"chat_id": key,
		"message": msg,
	})
}
