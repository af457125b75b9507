// middleware.go — язык запроса: cookie lang, затем Accept-Language, затем язык по умолчанию.
package i18n

import (
	"net/http"
)

// LangCookieName — cookie с языком, выбранным пользователем.
const LangCookieName = "lang"

// Middleware кладёт язык запроса в контекст и сообщает его в Content-Language.
// Неподдерживаемый defaultLang заменяется на DefaultLang.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	if !IsSupported(defaultLang) {
		defaultLang = DefaultLang
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := detectLanguage(r, defaultLang)
			w.Header().Set("Content-Language", lang)
			w.Header().Add("Vary", "Accept-Language, Cookie")
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

func detectLanguage(r *http.Request, defaultLang string) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsSupported(cookie.Value) {
		return cookie.Value
	}
	if lang, ok := MatchLanguage(r.Header.Get("Accept-Language")); ok {
		return lang
	}
	return defaultLang
}
