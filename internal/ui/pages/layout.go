// Пакет pages — templ-компоненты страниц портала (*.templ, сгенерированный
// код в *_templ.go) и данные, которые в них передают обработчики.
package pages

import (
	"context"

	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	"github.com/bigkaa/tender-portal/internal/ui/shell"
)

//go:generate templ generate

// CSRFFieldName — имя скрытого поля с CSRF-токеном (по умолчанию gorilla/csrf).
const CSRFFieldName = "gorilla.csrf.Token"

// Base — общие данные каждой страницы.
type Base struct {
	// Frame — оболочка (меню, заголовок, состояние панели).
	Frame shell.Frame
	// CSRFToken — токен для форм (csrf.Token(r)).
	CSRFToken string
	// Lang — текущий язык.
	Lang string
	// Notice — сообщение об успехе (уже переведённое).
	Notice string
	// Error — баннер ошибки (уже переведённый).
	Error string
}

func (b Base) lang() string {
	if b.Lang == "" {
		return i18n.DefaultLang
	}
	return b.Lang
}

// pageTitle — содержимое <title>: заголовок страницы и название портала.
func pageTitle(ctx context.Context, titleKey string) string {
	title := i18n.T(ctx, titleKey)
	if titleKey == "title.app" {
		return title
	}
	return title + " · " + i18n.T(ctx, "title.app")
}
