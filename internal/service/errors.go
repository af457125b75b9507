// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"strings"

	"github.com/bigkaa/tender-portal/internal/validation"
)

var (
	// ErrValidation — форма не прошла проверку (до обращения к API).
	ErrValidation = errors.New("ошибка валидации")
	// ErrTransitionNotAllowed — переход статуса заявки недоступен из текущего статуса.
	ErrTransitionNotAllowed = errors.New("переход статуса недоступен")
	// ErrUnsupportedRole — API вернул роль, которой в портале нет.
	ErrUnsupportedRole = errors.New("роль не поддерживается порталом")
)

// ValidationError — ошибки полей формы. errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Errors validation.Errors
}

// Error реализует error.
func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Errors.Fields(), ", ")
}

// Is связывает ValidationError с ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// validationError возвращает *ValidationError или nil, если ошибок нет.
func validationError(errs validation.Errors) error {
	if errs.OK() {
		return nil
	}
	return &ValidationError{Errors: errs}
}
