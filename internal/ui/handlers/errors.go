// errors.go — сообщения об ошибках для баннеров форм.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	"github.com/bigkaa/tender-portal/internal/validation"
)

// errorMessage переводит ошибку в текст баннера:
//  1. ошибки валидации — общее сообщение (подробности у полей);
//  2. ошибки полей от API — "поле: m1, m2; поле2: m3";
//  3. detail / error / первая non_field_errors — как есть;
//  4. остальное — локализованный fallbackKey.
func errorMessage(ctx context.Context, err error, fallbackKey string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, service.ErrValidation) {
		return i18n.T(ctx, "errors.validation")
	}
	if errors.Is(err, service.ErrUnsupportedRole) {
		return i18n.T(ctx, "errors.unsupported_role")
	}
	if errors.Is(err, service.ErrTransitionNotAllowed) {
		return i18n.T(ctx, "errors.transition")
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if summary := apiErr.FieldSummary(); summary != "" {
			return summary
		}
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return i18n.T(ctx, fallbackKey)
}

// fieldErrors возвращает ошибки полей, если err — ошибка валидации.
func fieldErrors(err error) validation.Errors {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Errors
	}
	return nil
}

// formStatus — HTTP-статус повторного показа формы после ошибки.
func formStatus(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTransitionNotAllowed):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnsupportedRole):
		return http.StatusForbidden
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
