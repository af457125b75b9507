// auth.go — данные страниц входа и активации.
package pages

import (
	"net/url"

	"github.com/bigkaa/tender-portal/internal/validation"
)

// LoginData — данные формы входа. Пароль обратно не выводится.
type LoginData struct {
	Username string
	Errors   validation.Errors
}

// ActivateData — данные формы активации.
type ActivateData struct {
	// Token — токен активации из ссылки в письме.
	Token       string
	NewUsername string
	Errors      validation.Errors
}

func activatePath(token string) string {
	return "/activate/" + url.PathEscape(token)
}
