// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

// ErrValidation — ошибка валидации входных данных.
var ErrValidation = errors.New("ошибка валидации")

// ValidationError — нарушение правила для конкретного поля.
// errors.Is(err, ErrValidation) истинно для любой ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
