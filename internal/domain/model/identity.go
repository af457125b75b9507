// Пакет model — доменные модели портала тендерной регистрации.
package model

// Identity — аутентифицированный пользователь портала.
// Создаётся при успешном входе или активации, живёт только в сессии.
type Identity struct {
	// ID — идентификатор пользователя в удалённой системе.
	ID int64 `json:"id"`
	// Email — email пользователя.
	Email string `json:"email"`
	// Role — роль: user (заявитель) или admin.
	Role string `json:"role"`
	// CompanyName — название компании заявителя (у администраторов обычно пусто).
	CompanyName string `json:"company_name,omitempty"`
	// Token — токен доступа к API.
	Token string `json:"token"`
}

// DisplayName возвращает имя для приветствия в шапке: компания или email.
func (i *Identity) DisplayName() string {
	if i.CompanyName != "" {
		return i.CompanyName
	}
	return i.Email
}

// Department — подразделение (справочник).
type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}
