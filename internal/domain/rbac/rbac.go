// Пакет rbac — роли портала и их домашние страницы.
// Модель ролей бинарная: user (заявитель) и admin. Иерархии нет —
// admin не удовлетворяет требованию user и наоборот.
package rbac

// Роли портала.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Пути входа и домашних страниц.
const (
	LoginPath   = "/login"
	CabinetPath = "/cabinet"
	AdminPath   = "/admin"
)

// IsValidRole проверяет, является ли строка допустимой ролью портала.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Satisfies — точное совпадение роли с требуемой.
func Satisfies(role, required string) bool {
	return IsValidRole(role) && role == required
}

// HomePath возвращает домашнюю страницу роли.
// Для неизвестной роли — страница входа.
func HomePath(role string) string {
	switch role {
	case RoleUser:
		return CabinetPath
	case RoleAdmin:
		return AdminPath
	default:
		return LoginPath
	}
}
