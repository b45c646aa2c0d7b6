package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// ErrorHandler превращает ошибки обработчиков в JSON ответ
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"code":  "http_error",
				"error": fiberErr.Message,
			})
		}

		appErr := apperrors.As(err)
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			logger.WithError(err).WithField("path", c.Path()).Error("Ошибка обработки запроса")
		}
		return c.Status(appErr.StatusCode).JSON(appErr)
	}
}
