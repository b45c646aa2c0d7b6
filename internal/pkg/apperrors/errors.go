// Package apperrors содержит типизированные ошибки предметной области.
//
// Все ошибки сравниваются по коду через errors.Is, поэтому копии, созданные
// через WithMessage/WithDetails/Wrap, совпадают с исходными переменными.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError представляет ошибку, которую можно показать пользователю
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`

	cause error
}

// Error реализует интерфейс error
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap возвращает исходную причину ошибки
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is сравнивает ошибки по коду
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails возвращает копию ошибки с дополнительными данными
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

// WithMessage возвращает копию ошибки с другим сообщением
func (e *AppError) WithMessage(message string) *AppError {
	c := *e
	c.Message = message
	return &c
}

// Wrap возвращает копию ошибки с причиной
func (e *AppError) Wrap(cause error) *AppError {
	c := *e
	c.cause = cause
	return &c
}

var (
	ErrDuplicateEmail = &AppError{
		Code:       "duplicate_email",
		Message:    "Пользователь с таким email уже существует",
		StatusCode: http.StatusConflict,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "invalid_credentials",
		Message:    "Неверный email или пароль",
		StatusCode: http.StatusUnauthorized,
	}

	ErrUnauthorized = &AppError{
		Code:       "unauthorized",
		Message:    "Пользователь не авторизован",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "forbidden",
		Message:    "Нет доступа",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "not_found",
		Message:    "Не найдено",
		StatusCode: http.StatusNotFound,
	}

	ErrConflict = &AppError{
		Code:       "conflict",
		Message:    "Запись уже существует",
		StatusCode: http.StatusConflict,
	}

	ErrValidation = &AppError{
		Code:       "validation_error",
		Message:    "Неверный формат данных",
		StatusCode: http.StatusBadRequest,
	}

	ErrInsufficientImages = &AppError{
		Code:       "insufficient_images",
		Message:    "Минимум 10 фотографий обязательно",
		StatusCode: http.StatusBadRequest,
	}

	ErrInsufficientBalance = &AppError{
		Code:       "insufficient_balance",
		Message:    "Недостаточно средств на балансе. Необходимо 1500 монет для размещения объявления.",
		StatusCode: http.StatusPaymentRequired,
	}

	ErrPostingCooldown = &AppError{
		Code:       "posting_cooldown",
		Message:    "Следующее объявление пока разместить нельзя",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrEmptyComment = &AppError{
		Code:       "empty_comment",
		Message:    "Комментарий не может быть пустым",
		StatusCode: http.StatusBadRequest,
	}

	ErrEmptyMessage = &AppError{
		Code:       "empty_message",
		Message:    "Текст сообщения не может быть пустым",
		StatusCode: http.StatusBadRequest,
	}

	ErrDateRangeInvalid = &AppError{
		Code:       "date_range_invalid",
		Message:    "Дата окончания должна быть позже даты начала",
		StatusCode: http.StatusBadRequest,
	}

	ErrStoreWriteFailure = &AppError{
		Code:       "store_write_failure",
		Message:    "Ошибка сохранения данных",
		StatusCode: http.StatusInternalServerError,
	}

	ErrInternal = &AppError{
		Code:       "internal_error",
		Message:    "Внутренняя ошибка",
		StatusCode: http.StatusInternalServerError,
	}
)

// CooldownDetails передаётся в Details ошибки ErrPostingCooldown
type CooldownDetails struct {
	NextAllowedDate time.Time `json:"next_allowed_date"`
}

// NewPostingCooldown создаёт ошибку ограничения на размещение с датой следующей попытки
func NewPostingCooldown(next time.Time) *AppError {
	return ErrPostingCooldown.
		WithMessage(fmt.Sprintf("Вы можете разместить следующее объявление %s", next.Format("02.01.2006"))).
		WithDetails(CooldownDetails{NextAllowedDate: next})
}

// NextAllowedDate извлекает дату окончания ограничения из ошибки
func NextAllowedDate(err error) (time.Time, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrPostingCooldown.Code {
		return time.Time{}, false
	}
	d, ok := appErr.Details.(CooldownDetails)
	if !ok {
		return time.Time{}, false
	}
	return d.NextAllowedDate, true
}

// NewValidationError создаёт ошибку валидации конкретного поля
func NewValidationError(field, message string) *AppError {
	return ErrValidation.
		WithMessage(message).
		WithDetails(map[string]string{"field": field})
}

// NewNotFound создаёт ошибку "не найдено" для указанного ресурса
func NewNotFound(message string) *AppError {
	return ErrNotFound.WithMessage(message)
}

// NewStoreWriteFailure оборачивает ошибку хранилища
func NewStoreWriteFailure(cause error) *AppError {
	return ErrStoreWriteFailure.Wrap(cause)
}

// As приводит ошибку к AppError; неизвестные ошибки становятся ErrInternal
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.Wrap(err)
}
