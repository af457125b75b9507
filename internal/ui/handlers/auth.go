// auth.go — вход, выход, активация аккаунта и корневой redirect.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	uimiddleware "github.com/bigkaa/tender-portal/internal/ui/middleware"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
	"github.com/bigkaa/tender-portal/internal/validation"
)

// AuthHandler — обработчики входа, выхода и активации.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.Manager
	logger   *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleRoot — GET /
// Аутентифицированный пользователь попадает на домашнюю страницу роли,
// остальные — на вход.
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	target := rbac.LoginPath
	if identity := uimiddleware.IdentityFromContext(r.Context()); identity != nil {
		target = rbac.HomePath(identity.Role)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLoginPage — GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if identity := uimiddleware.IdentityFromContext(r.Context()); identity != nil {
		http.Redirect(w, r, rbac.HomePath(identity.Role), http.StatusFound)
		return
	}
	render(w, r, h.logger, http.StatusOK, pages.Login(baseFor(r), pages.LoginData{}))
}

// HandleLogin — POST /login
// Успешный вход создаёт сессию и ведёт на домашнюю страницу роли.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.logger, http.StatusBadRequest, "errors.validation")
		return
	}
	form := validation.Login{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	identity, err := h.auth.Login(r.Context(), form)
	if err != nil {
		h.logger.Info("Неудачная попытка входа",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		base := baseFor(r)
		base.Error = errorMessage(r.Context(), err, "errors.login_failed")
		render(w, r, h.logger, formStatus(err), pages.Login(base, pages.LoginData{
			Username: form.Username,
			Errors:   fieldErrors(err),
		}))
		return
	}

	h.startSession(w, r, identity, rbac.HomePath(identity.Role))
}

// HandleLogout — POST /logout
// Токен отзывается на сервере (ошибка не мешает выходу), локальная
// сессия удаляется всегда.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if identity, ok := h.sessions.Current(r); ok {
		h.auth.Logout(r.Context(), identity.Token)
		h.logger.Info("Пользователь вышел", slog.Int64("user_id", identity.ID))
	}
	h.sessions.Logout(w, r)
	http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
}

// HandleActivatePage — GET /activate/{token}
func (h *AuthHandler) HandleActivatePage(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.Activate(baseFor(r), pages.ActivateData{
		Token: chi.URLParam(r, "token"),
	}))
}

// HandleActivate — POST /activate/{token}
// После установки пароля пользователь входит автоматически.
func (h *AuthHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.logger, http.StatusBadRequest, "errors.validation")
		return
	}
	form := validation.Activation{
		Password:        r.PostFormValue("password"),
		PasswordConfirm: r.PostFormValue("password_confirm"),
		NewUsername:     r.PostFormValue("new_username"),
	}

	identity, err := h.auth.Activate(r.Context(), token, form)
	if err != nil {
		h.logger.Info("Ошибка активации аккаунта",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		base := baseFor(r)
		base.Error = errorMessage(r.Context(), err, "errors.activate_failed")
		render(w, r, h.logger, formStatus(err), pages.Activate(base, pages.ActivateData{
			Token:       token,
			NewUsername: form.NewUsername,
			Errors:      fieldErrors(err),
		}))
		return
	}

	h.startSession(w, r, identity, withNotice(rbac.HomePath(identity.Role), NoticeActivated))
}

// startSession сохраняет сессию и перенаправляет на target.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, identity *model.Identity, target string) {
	if err := h.sessions.Login(w, r, identity.Token, *identity); err != nil {
		h.logger.Error("Ошибка создания сессии",
			slog.Int64("user_id", identity.ID),
			slog.String("error", err.Error()),
		)
		h.auth.Logout(r.Context(), identity.Token)
		renderError(w, r, h.logger, http.StatusInternalServerError, "errors.internal")
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
