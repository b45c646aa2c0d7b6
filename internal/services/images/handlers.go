package images

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// UploadPlaceholders выдаёт адреса фотографий вместо загрузки
func UploadPlaceholders(c fiber.Ctx) error {
	var payload struct {
		Existing int    `json:"existing"`
		Count    int    `json:"count"`
		UploadID string `json:"upload_id"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат данных")
	}

	urls, err := Placeholders(payload.Existing, payload.Count)
	if err != nil {
		return err
	}

	// Группа загрузки связывает несколько запросов одной формы
	uploadID := payload.UploadID
	if uploadID == "" {
		uploadID = uuid.New().String()
	}

	return c.JSON(fiber.Map{
		"upload_id": uploadID,
		"images":    urls,
		"total":     payload.Existing + len(urls),
	})
}
