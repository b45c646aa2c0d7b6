// Package validate проверяет входные данные по тегам validate.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках используем json-имена полей
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Struct проверяет структуру и возвращает apperrors.ErrValidation по первому нарушению
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.ErrValidation.Wrap(err)
	}
	fe := verrs[0]
	return apperrors.NewValidationError(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Поле " + fe.Field() + " обязательно"
	case "email":
		return "Неверный формат email"
	case "min":
		if fe.Kind() == reflect.String {
			return "Поле " + fe.Field() + " должно содержать не менее " + fe.Param() + " символов"
		}
		return "Поле " + fe.Field() + " должно быть не меньше " + fe.Param()
	case "gt":
		return "Поле " + fe.Field() + " должно быть больше " + fe.Param()
	case "gte":
		return "Поле " + fe.Field() + " должно быть не меньше " + fe.Param()
	case "lte":
		return "Поле " + fe.Field() + " должно быть не больше " + fe.Param()
	case "oneof":
		return "Поле " + fe.Field() + " должно быть одним из: " + fe.Param()
	default:
		return "Неверное значение поля " + fe.Field()
	}
}
