package favorite

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/db"
	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// Handler обрабатывает HTTP запросы избранного
type Handler struct {
	svc *Service
}

// NewHandler создаёт новый экземпляр Handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func parseListingID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("listing_id", "Неверный формат ID объявления")
	}
	return id, nil
}

// GetFavorites возвращает избранные объявления пользователя
func (h *Handler) GetFavorites(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := h.svc.List(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"favorites": listings})
}

// AddToFavorites добавляет объявление в избранное
func (h *Handler) AddToFavorites(c fiber.Ctx) error {
	var payload struct {
		ListingID int64 `json:"listing_id"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат данных")
	}
	if payload.ListingID == 0 {
		return apperrors.NewValidationError("listing_id", "ID объявления не указан")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := h.svc.Add(ctx, middleware.UserID(c), payload.ListingID); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Объявление успешно добавлено в избранное",
	})
}

// RemoveFromFavorites удаляет объявление из избранного
func (h *Handler) RemoveFromFavorites(c fiber.Ctx) error {
	id, err := parseListingID(c.Params("id"))
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := h.svc.Remove(ctx, middleware.UserID(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление удалено из избранного",
	})
}

// CheckFavorite сообщает, находится ли объявление в избранном
func (h *Handler) CheckFavorite(c fiber.Ctx) error {
	id, err := parseListingID(c.Params("id"))
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	saved, err := h.svc.Contains(ctx, middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"is_favorite": saved})
}
