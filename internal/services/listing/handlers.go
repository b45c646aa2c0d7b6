package listing

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/db"
	"github.com/rajivgeraev/sudak-api/internal/filter"
	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// Revisions отдаёт текущую ревизию списка объявлений
type Revisions interface {
	Revision() int64
}

// Handler обрабатывает HTTP запросы объявлений
type Handler struct {
	repo      *Repository
	revisions Revisions
}

// NewHandler создаёт новый экземпляр Handler
func NewHandler(repo *Repository, revisions Revisions) *Handler {
	return &Handler{repo: repo, revisions: revisions}
}

func parseListingID(c fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("id", "Неверный формат ID объявления")
	}
	return id, nil
}

// GetListings возвращает объявления с фильтрами и пагинацией
func (h *Handler) GetListings(c fiber.Ctx) error {
	criteria, err := filter.ParseCriteria(c.Queries())
	if err != nil {
		return err
	}

	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		return apperrors.NewValidationError("offset", "Неверное значение offset")
	}
	// limit=0 означает "без ограничения"
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil || limit < 0 {
		return apperrors.NewValidationError("limit", "Неверное значение limit")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	all, err := h.repo.List(ctx)
	if err != nil {
		return err
	}
	filtered := filter.Apply(all, criteria)
	total := len(filtered)

	page := filtered[min(offset, total):]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}

	return c.JSON(fiber.Map{
		"listings": page,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"revision": h.revisions.Revision(),
	})
}

// GetChanges сообщает, менялся ли список объявлений с ревизии since
func (h *Handler) GetChanges(c fiber.Ctx) error {
	since, err := strconv.ParseInt(c.Query("since", "0"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("since", "Неверное значение since")
	}
	rev := h.revisions.Revision()
	return c.JSON(fiber.Map{
		"revision": rev,
		"changed":  rev > since,
	})
}

// GetListing возвращает объявление и учитывает просмотр
func (h *Handler) GetListing(c fiber.Ctx) error {
	id, err := parseListingID(c)
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := h.repo.RecordView(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(listing)
}

// GetMyListings возвращает объявления текущего пользователя
func (h *Handler) GetMyListings(c fiber.Ctx) error {
	userID := middleware.UserID(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := h.repo.ListByOwner(ctx, userID)
	if err != nil {
		return err
	}
	next, err := h.repo.NextAllowedPosting(ctx, userID)
	if err != nil {
		return err
	}

	resp := fiber.Map{"listings": listings}
	if !next.IsZero() {
		resp["next_allowed_date"] = next
	}
	return c.JSON(resp)
}

// CreateListing обрабатывает создание нового объявления
func (h *Handler) CreateListing(c fiber.Ctx) error {
	var in CreateInput
	if err := c.Bind().Body(&in); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат данных")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, balance, err := h.repo.Create(ctx, middleware.UserID(c), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"listing": listing,
		"balance": balance,
		"message": "Объявление успешно создано",
	})
}

// DeleteListing удаляет объявление; удалять может только владелец
func (h *Handler) DeleteListing(c fiber.Ctx) error {
	id, err := parseListingID(c)
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if listing.OwnerID != middleware.UserID(c) {
		return apperrors.ErrForbidden.WithMessage("У вас нет доступа к удалению этого объявления")
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление успешно удалено",
	})
}

// ValidateAvailability проверяет период доступности до отправки объявления
func (h *Handler) ValidateAvailability(c fiber.Ctx) error {
	var period models.AvailabilityPeriod
	if err := c.Bind().Body(&period); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат данных")
	}
	if err := ValidateAvailability(period); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true})
}
