package review

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/db"
	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// UserLookup находит автора отзыва
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// Handler обрабатывает HTTP запросы отзывов
type Handler struct {
	svc   *Service
	users UserLookup
}

// NewHandler создаёт новый экземпляр Handler
func NewHandler(svc *Service, users UserLookup) *Handler {
	return &Handler{svc: svc, users: users}
}

func parseListingID(c fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("id", "Неверный формат ID объявления")
	}
	return id, nil
}

// GetReviews обрабатывает GET /api/listings/:id/reviews
func (h *Handler) GetReviews(c fiber.Ctx) error {
	id, err := parseListingID(c)
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	reviews, err := h.svc.ListReviews(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// AddReview обрабатывает POST /api/listings/:id/reviews
func (h *Handler) AddReview(c fiber.Ctx) error {
	id, err := parseListingID(c)
	if err != nil {
		return err
	}

	var payload struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат данных")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	author, err := h.users.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		return apperrors.ErrUnauthorized.Wrap(err)
	}

	review, listing, err := h.svc.AddReview(ctx, id, author.Name, payload.Rating, payload.Comment)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"review":  review,
		"rating":  listing.Rating,
		"reviews": listing.Reviews,
	})
}
