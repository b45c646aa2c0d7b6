package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/utils"
)

const userIDKey = "userID"

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperrors.ErrUnauthorized.WithMessage("Отсутствует заголовок авторизации")
		}

		// Проверяем Bearer токен
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return apperrors.ErrUnauthorized.WithMessage("Неверный формат заголовка авторизации")
		}

		userID, err := jwtService.ExtractUserID(parts[1])
		if err != nil {
			return apperrors.ErrUnauthorized.WithMessage("Токен недействителен или истёк")
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID возвращает идентификатор пользователя, положенный AuthMiddleware
func UserID(c fiber.Ctx) string {
	userID, _ := c.Locals(userIDKey).(string)
	return userID
}
