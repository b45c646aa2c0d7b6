package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/sudak-api/internal/db"
	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/utils"
)

// Handler обрабатывает HTTP запросы авторизации и профиля
type Handler struct {
	svc        *Service
	jwtService *utils.JWTService
}

// NewHandler создаёт новый экземпляр Handler
func NewHandler(svc *Service, jwtService *utils.JWTService) *Handler {
	return &Handler{svc: svc, jwtService: jwtService}
}

type authResponse struct {
	Token string             `json:"token"`
	User  models.SessionUser `json:"user"`
}

func (h *Handler) respondWithToken(c fiber.Ctx, status int, user models.SessionUser) error {
	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		return apperrors.ErrInternal.Wrap(err)
	}
	return c.Status(status).JSON(authResponse{Token: token, User: user})
}

// Register обрабатывает POST /api/auth/register
func (h *Handler) Register(c fiber.Ctx) error {
	var in RegisterInput
	if err := c.Bind().Body(&in); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат запроса")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := h.svc.Register(ctx, in)
	if err != nil {
		return err
	}
	return h.respondWithToken(c, fiber.StatusCreated, user)
}

// Login обрабатывает POST /api/auth/login
func (h *Handler) Login(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат запроса")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return err
	}
	return h.respondWithToken(c, fiber.StatusOK, user)
}

// Logout обрабатывает POST /api/auth/logout
func (h *Handler) Logout(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	if err := h.svc.Logout(ctx, middleware.UserID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session обрабатывает GET /api/session
func (h *Handler) Session(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	session, err := h.svc.Session(ctx)
	if err != nil {
		return err
	}
	// Снимок принадлежит другому пользователю
	if session != nil && session.ID != middleware.UserID(c) {
		session = nil
	}
	return c.JSON(fiber.Map{"user": session})
}

// Profile обрабатывает GET /api/profile
func (h *Handler) Profile(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := h.svc.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(user.Snapshot())
}

// UpdatePhone обрабатывает PUT /api/profile/phone
func (h *Handler) UpdatePhone(c fiber.Ctx) error {
	var payload struct {
		Phone string `json:"phone"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return apperrors.ErrValidation.WithMessage("Неверный формат запроса")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := h.svc.UpdatePhone(ctx, middleware.UserID(c), payload.Phone)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
