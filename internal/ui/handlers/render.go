// Пакет handlers — HTTP-обработчики страниц портала.
// render.go — общие данные страниц, рендеринг и обработка истёкшего токена.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/csrf"

	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tender-portal/internal/ui/middleware"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
	"github.com/bigkaa/tender-portal/internal/ui/shell"
)

// NoticeParam — query-параметр сообщения об успехе после redirect.
const NoticeParam = "notice"

// Допустимые значения NoticeParam.
const (
	NoticeApproved  = "approved"
	NoticeDeclined  = "declined"
	NoticeActivated = "activated"
)

var notices = map[string]bool{
	NoticeApproved:  true,
	NoticeDeclined:  true,
	NoticeActivated: true,
}

// baseFor собирает общие данные страницы из запроса: оболочку по
// identity и пути, CSRF-токен, язык и сообщение об успехе.
func baseFor(r *http.Request) pages.Base {
	identity := uimiddleware.IdentityFromContext(r.Context())
	state := shell.StateFromRequest(r.URL.Query())

	base := pages.Base{
		Frame:     shell.Compose(identity, r.URL.Path, state),
		CSRFToken: csrf.Token(r),
		Lang:      i18n.LangFromContext(r.Context()),
	}
	if notice := r.URL.Query().Get(NoticeParam); notices[notice] {
		base.Notice = i18n.T(r.Context(), "notice."+notice)
	}
	return base
}

// render отрисовывает компонент с указанным статусом.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// renderError отрисовывает страницу ошибки.
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, messageKey string) {
	render(w, r, logger, status, pages.ErrorPage(baseFor(r), pages.ErrorData{
		Status:     status,
		MessageKey: messageKey,
	}))
}

// NotFound — обработчик несуществующих страниц.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	logger = logger.With(slog.String("component", "ui.not_found"))
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, logger, http.StatusNotFound, "errors.not_found")
	}
}

// expireOnUnauthorized: если API отклонил токен (401), закрывает локальную
// сессию и перенаправляет на вход. Возвращает true, если ответ уже отправлен.
func expireOnUnauthorized(w http.ResponseWriter, r *http.Request, sessions *auth.Manager, logger *slog.Logger, err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	attrs := []any{slog.String("path", r.URL.Path)}
	if identity := uimiddleware.IdentityFromContext(r.Context()); identity != nil {
		attrs = append(attrs, slog.Int64("user_id", identity.ID))
	}
	logger.Info("Токен API недействителен, сессия закрыта", attrs...)

	sessions.Logout(w, r)
	http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
	return true
}

// withNotice добавляет NoticeParam к локальной ссылке.
func withNotice(path, notice string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(NoticeParam, notice)
	u.RawQuery = q.Encode()
	return u.String()
}

// safeReturn принимает только локальные ссылки внутри prefix,
// иначе возвращает fallback (защита от open redirect).
func safeReturn(target, prefix, fallback string) string {
	if target == "" || !strings.HasPrefix(target, prefix) || strings.HasPrefix(target, "//") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return target
}

// CSRFFailure — ответ на запрос с отсутствующим или неверным CSRF-токеном.
func CSRFFailure(logger *slog.Logger) http.HandlerFunc {
	logger = logger.With(slog.String("component", "ui.csrf"))
	return func(w http.ResponseWriter, r *http.Request) {
		reason := "unknown"
		if err := csrf.FailureReason(r); err != nil {
			reason = err.Error()
		}
		logger.Warn("CSRF-проверка не пройдена",
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("reason", reason),
		)
		renderError(w, r, logger, http.StatusForbidden, "errors.csrf")
	}
}
