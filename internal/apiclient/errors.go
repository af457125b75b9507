package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized — API отклонил токен (401). Сессию нужно закрыть.
var ErrUnauthorized = errors.New("токен API недействителен")

// APIError — отказ удалённого API с разобранным телом ответа.
// Поддерживаемые формы тела: {"detail": "..."}, {"error": "..." | [...]},
// {"non_field_errors": [...]}, {"field": ["m1", "m2"], ...}.
type APIError struct {
	// StatusCode — HTTP-статус ответа.
	StatusCode int
	// Detail — сообщение detail или error.
	Detail string
	// NonFieldErrors — ошибки, не привязанные к полю.
	NonFieldErrors []string
	// FieldErrors — ошибки по полям.
	FieldErrors map[string][]string
}

// Error реализует error.
func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("API вернул статус %d: %s", e.StatusCode, msg)
	}
	if summary := e.FieldSummary(); summary != "" {
		return fmt.Sprintf("API вернул статус %d: %s", e.StatusCode, summary)
	}
	return fmt.Sprintf("API вернул статус %d", e.StatusCode)
}

// Is позволяет errors.Is(err, ErrUnauthorized) для ответов 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Message — одиночное сообщение сервера: detail/error, иначе первая
// из non_field_errors. Пусто, если сервер прислал только ошибки полей.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.NonFieldErrors) > 0 {
		return e.NonFieldErrors[0]
	}
	return ""
}

// FieldSummary — ошибки полей в виде "field: m1, m2; field2: m3"
// (поля по алфавиту).
func (e *APIError) FieldSummary() string {
	if len(e.FieldErrors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.FieldErrors[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// parseAPIError разбирает тело ответа с ошибкой. Нераспознанное тело
// даёт APIError только со статусом.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	// Приоритет одиночного сообщения: detail, error, message.
	for _, key := range []string{"detail", "error", "message"} {
		if messages := decodeMessages(raw[key]); len(messages) > 0 && apiErr.Detail == "" {
			apiErr.Detail = strings.Join(messages, " ")
		}
	}

	for key, value := range raw {
		messages := decodeMessages(value)
		if len(messages) == 0 {
			continue
		}
		switch key {
		case "detail", "error", "message":
		case "non_field_errors":
			apiErr.NonFieldErrors = messages
		default:
			if apiErr.FieldErrors == nil {
				apiErr.FieldErrors = make(map[string][]string)
			}
			apiErr.FieldErrors[key] = messages
		}
	}
	return apiErr
}

// decodeMessages принимает строку или массив строк.
func decodeMessages(value json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(value, &list); err == nil {
		return list
	}
	return nil
}
