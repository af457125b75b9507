// cabinet.go — данные кабинета заявителя и страницы ошибки.
package pages

import "github.com/bigkaa/tender-portal/internal/domain/model"

// Пути кабинета.
const (
	CabinetDocumentsPath = "/cabinet/documents"
	CabinetStatusPath    = "/cabinet/status"
)

// StatusData — данные страницы статуса. Applicant == nil — загрузить не удалось.
type StatusData struct {
	Applicant *model.Applicant
}

// statusHintKey — пояснение к статусу для заявителя.
func statusHintKey(status string) string {
	switch status {
	case model.StatusNew, model.StatusInProgress, model.StatusPending,
		model.StatusAccepted, model.StatusDeclined, model.StatusBlocked:
		return "status_hint." + status
	default:
		return "status_hint.unknown"
	}
}

// ErrorData — данные страницы ошибки.
type ErrorData struct {
	Status int
	// MessageKey — ключ i18n сообщения.
	MessageKey string
}
