package apiclient

import (
	"github.com/bigkaa/tender-portal/internal/domain/model"
)

// Credentials — тело POST login/.
type Credentials struct {
	// Username — email или логин.
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // G117: учётные данные формы входа
}

// User — пользователь в ответах login/ и activate/.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name,omitempty"`
	Status      string `json:"status,omitempty"`
	IsActivated bool   `json:"is_activated"`
}

// Identity преобразует пользователя API в identity портала (без токена).
func (u User) Identity() model.Identity {
	return model.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		CompanyName: u.CompanyName,
	}
}

// AuthResult — ответ login/ и activate/.
type AuthResult struct {
	Token   string `json:"token"` //nolint:gosec // G117: токен API в ответе входа
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

// Registration — тело POST register/.
type Registration struct {
	TenderNumber  string `json:"tender_number"`
	Department    int64  `json:"department"`
	CompanyName   string `json:"company_name"`
	EDRPOU        string `json:"edrpou"`
	LegalAddress  string `json:"legal_address"`
	ActualAddress string `json:"actual_address"`
	DirectorName  string `json:"director_name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

// RegisterResult — ответ register/.
type RegisterResult struct {
	Message      string `json:"message"`
	TenderNumber string `json:"tender_number"`
	UserID       int64  `json:"user_id"`
}

// Activation — тело POST activate/.
type Activation struct {
	Token           string `json:"token"`
	Password        string `json:"password"`         //nolint:gosec // G117: пароль формы активации
	PasswordConfirm string `json:"password_confirm"` //nolint:gosec // G117: пароль формы активации
	NewUsername     string `json:"new_username,omitempty"`
}

// ListUsersParams — фильтры GET users/ на стороне сервера.
type ListUsersParams struct {
	// Status — фильтр по статусу (пусто — все).
	Status string
	// Department — фильтр по подразделению (0 — все).
	Department int64
}

// DeclineRequest — тело POST users/{id}/decline/.
type DeclineRequest struct {
	Reason string `json:"reason"`
}
