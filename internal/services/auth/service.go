// Package auth отвечает за пользователей, вход и сессию.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/sudak-api/internal/metrics"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/pkg/idgen"
	"github.com/rajivgeraev/sudak-api/internal/pkg/validate"
	"github.com/rajivgeraev/sudak-api/internal/store"
)

// RegisterInput данные для регистрации
type RegisterInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Name     string      `json:"name" validate:"required"`
	Role     models.Role `json:"role" validate:"required,oneof=guest host"`
}

// Service работает с таблицей пользователей и снимком сессии
type Service struct {
	store  store.Store
	logger *logrus.Logger

	Now      func() time.Time
	hashCost int
}

// NewService создаёт новый экземпляр Service
func NewService(s store.Store, logger *logrus.Logger) *Service {
	return &Service{
		store:    s,
		logger:   logger,
		Now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт пользователя со стартовым балансом и открывает сессию
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.SessionUser, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return models.SessionUser{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.SessionUser{}, apperrors.ErrInternal.Wrap(err)
	}

	var session models.SessionUser
	err = store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var users []models.User
		if _, err := tx.Get(ctx, store.KeyUsers, &users); err != nil {
			return err
		}
		for _, u := range users {
			if normalizeEmail(u.Email) == in.Email {
				return apperrors.ErrDuplicateEmail
			}
		}

		now := s.Now()
		user := models.User{
			ID:        idgen.TimestampString(now),
			Email:     in.Email,
			Password:  string(hash),
			Name:      in.Name,
			Role:      in.Role,
			Balance:   models.StartingBalance,
			CreatedAt: now,
		}
		users = append(users, user)
		session = user.Snapshot()

		if err := tx.Put(store.KeyUsers, users); err != nil {
			return err
		}
		return tx.Put(store.KeySession, session)
	})
	if err != nil {
		return models.SessionUser{}, err
	}

	metrics.UserRegistered()
	s.logger.WithField("user_id", session.ID).Info("Зарегистрирован новый пользователь")
	return session, nil
}

// Login проверяет email и пароль и открывает сессию
func (s *Service) Login(ctx context.Context, email, password string) (models.SessionUser, error) {
	email = normalizeEmail(email)

	var session models.SessionUser
	err := store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var users []models.User
		if _, err := tx.Get(ctx, store.KeyUsers, &users); err != nil {
			return err
		}

		idx := -1
		for i, u := range users {
			if normalizeEmail(u.Email) == email {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.ErrInvalidCredentials
		}

		user := &users[idx]
		ok, legacy := checkPassword(user.Password, password)
		if !ok {
			return apperrors.ErrInvalidCredentials
		}

		// Пароль старой записи хранился открытым текстом, заменяем хэшем
		if legacy {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
			if err != nil {
				return apperrors.ErrInternal.Wrap(err)
			}
			user.Password = string(hash)
			if err := tx.Put(store.KeyUsers, users); err != nil {
				return err
			}
		}

		session = user.Snapshot()
		return tx.Put(store.KeySession, session)
	})
	if err != nil {
		return models.SessionUser{}, err
	}

	s.logger.WithField("user_id", session.ID).Info("Пользователь вошёл")
	return session, nil
}

// checkPassword сравнивает пароль; legacy = запись хранила пароль без хэша
func checkPassword(stored, password string) (ok, legacy bool) {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1, true
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Logout закрывает сессию пользователя userID. Чужую сессию не трогает,
// повторный вызов ничего не делает
func (s *Service) Logout(ctx context.Context, userID string) error {
	return store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var session models.SessionUser
		found, err := tx.Get(ctx, store.KeySession, &session)
		if err != nil || !found || session.ID != userID {
			return err
		}
		tx.Delete(store.KeySession)
		return nil
	})
}

// Session возвращает сохранённый снимок сессии или nil
func (s *Service) Session(ctx context.Context) (*models.SessionUser, error) {
	var session models.SessionUser
	found, err := store.GetJSON(ctx, s.store, store.KeySession, &session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// RestoreSession поднимает сессию при старте без повторной проверки
func (s *Service) RestoreSession(ctx context.Context) (*models.SessionUser, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		s.logger.Info("Сохранённой сессии нет")
		return nil, nil
	}
	s.logger.WithField("user_id", session.ID).Info("Сессия восстановлена")
	return session, nil
}

// MigrateBalances выставляет стартовый баланс пользователям без поля balance.
// Возвращает количество обновлённых записей.
func (s *Service) MigrateBalances(ctx context.Context) (int, error) {
	var migrated int
	err := store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		migrated = 0

		var users []map[string]any
		found, err := tx.Get(ctx, store.KeyUsers, &users)
		if err != nil || !found {
			return err
		}

		for _, u := range users {
			if _, ok := u["balance"]; !ok {
				u["balance"] = models.StartingBalance
				migrated++
			}
		}
		if migrated == 0 {
			return nil
		}
		return tx.Put(store.KeyUsers, users)
	})
	if err != nil {
		return 0, err
	}

	if migrated > 0 {
		s.logger.WithField("users", migrated).Info("Проставлен стартовый баланс")
	}
	return migrated, nil
}

// GetUser возвращает пользователя по идентификатору
func (s *Service) GetUser(ctx context.Context, userID string) (models.User, error) {
	var users []models.User
	if _, err := store.GetJSON(ctx, s.store, store.KeyUsers, &users); err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.ID == userID {
			return u, nil
		}
	}
	return models.User{}, apperrors.NewNotFound("Пользователь не найден")
}

// Balance возвращает баланс пользователя
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// UpdatePhone меняет телефон пользователя вместе с его объявлениями и сессией
func (s *Service) UpdatePhone(ctx context.Context, userID, phone string) (models.SessionUser, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return models.SessionUser{}, apperrors.NewValidationError("phone", "Поле phone обязательно")
	}

	var snapshot models.SessionUser
	err := store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var users []models.User
		if _, err := tx.Get(ctx, store.KeyUsers, &users); err != nil {
			return err
		}

		idx := -1
		for i := range users {
			if users[i].ID == userID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.NewNotFound("Пользователь не найден")
		}
		users[idx].Phone = phone
		snapshot = users[idx].Snapshot()
		if err := tx.Put(store.KeyUsers, users); err != nil {
			return err
		}

		var listings []models.Listing
		if _, err := tx.Get(ctx, store.KeyListings, &listings); err != nil {
			return err
		}
		changed := false
		for i := range listings {
			if listings[i].OwnerID == userID {
				listings[i].OwnerPhone = phone
				changed = true
			}
		}
		if changed {
			if err := tx.Put(store.KeyListings, listings); err != nil {
				return err
			}
		}

		var session models.SessionUser
		found, err := tx.Get(ctx, store.KeySession, &session)
		if err != nil {
			return err
		}
		if found && session.ID == userID {
			session.Phone = phone
			return tx.Put(store.KeySession, session)
		}
		return nil
	})
	if err != nil {
		return models.SessionUser{}, err
	}
	return snapshot, nil
}
