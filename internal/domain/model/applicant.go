package model

import "time"

// Статусы заявки.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusPending    = "pending"
	StatusAccepted   = "accepted"
	StatusDeclined   = "declined"
	// StatusBlocked встречается в данных API, но действий над ним портал не предлагает.
	StatusBlocked = "blocked"
)

// Statuses — статусы в порядке отображения в фильтрах.
var Statuses = []string{
	StatusNew,
	StatusInProgress,
	StatusPending,
	StatusAccepted,
	StatusDeclined,
}

// Applicant — заявка победителя тендера (копия записи удалённой системы).
type Applicant struct {
	ID              int64      `json:"id"`
	TenderNumber    string     `json:"tender_number"`
	CompanyName     string     `json:"company_name"`
	EDRPOU          string     `json:"edrpou"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	ContactPerson   string     `json:"contact_person"`
	DirectorName    string     `json:"director_name"`
	LegalAddress    string     `json:"legal_address"`
	ActualAddress   string     `json:"actual_address"`
	Department      int64      `json:"department"`
	DepartmentName  string     `json:"department_name"`
	Status          string     `json:"status"`
	StatusDisplay   string     `json:"status_display,omitempty"`
	IsActivated     bool       `json:"is_activated"`
	DocumentsFolder string     `json:"documents_folder,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
}

// CanApprove — одобрение доступно только для новых заявок.
func (a *Applicant) CanApprove() bool {
	return a.Status == StatusNew
}

// CanDecline — отклонение доступно для new, in_progress и pending.
// Обратных переходов UI не предлагает.
func (a *Applicant) CanDecline() bool {
	switch a.Status {
	case StatusNew, StatusInProgress, StatusPending:
		return true
	default:
		return false
	}
}

// IsKnownStatus проверяет, что статус входит в набор, который понимает портал.
func IsKnownStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// StatusColor возвращает цвет метки статуса для таблиц и карточек.
func StatusColor(status string) string {
	switch status {
	case StatusNew:
		return "blue"
	case StatusInProgress:
		return "orange"
	case StatusPending:
		return "gold"
	case StatusAccepted:
		return "green"
	case StatusDeclined:
		return "red"
	default:
		return "gray"
	}
}
