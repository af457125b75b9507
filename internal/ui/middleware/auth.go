// Пакет middleware — HTTP middleware для UI портала.
// auth.go — загрузка сессии в контекст и охрана маршрутов по роли.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
)

// contextKey — тип для ключей контекста UI.
type contextKey string

const (
	// ContextKeyIdentity — identity текущей сессии в контексте запроса.
	ContextKeyIdentity contextKey = "ui_identity"
)

// UIAuth — middleware сессии UI. Сессия перечитывается на каждом
// запросе, решение охраны не кэшируется.
type UIAuth struct {
	sessions *auth.Manager
	logger   *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(sessions *auth.Manager, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware помещает identity (если есть) в контекст и пропускает
// запрос дальше. Ничего не запрещает — это делает RequireRole.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := ua.sessions.Resolve(w, r)
			if ok {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Decision — результат охраны маршрута.
type Decision struct {
	// Allow — показать защищённую страницу.
	Allow bool
	// Redirect — куда перенаправить, если Allow == false.
	Redirect string
}

// Decide — правило охраны: без сессии — на вход, с чужой ролью —
// на домашнюю страницу своей роли, иначе пропустить.
func Decide(identity *model.Identity, requiredRole string) Decision {
	if identity == nil {
		return Decision{Redirect: rbac.LoginPath}
	}
	if !rbac.Satisfies(identity.Role, requiredRole) {
		return Decision{Redirect: rbac.HomePath(identity.Role)}
	}
	return Decision{Allow: true}
}

// RequireRole возвращает middleware, пропускающий только identity
// с ролью role. Защищённый обработчик при redirect не вызывается.
func (ua *UIAuth) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			decision := Decide(identity, role)
			if !decision.Allow {
				attrs := []any{
					slog.String("path", r.URL.Path),
					slog.String("required_role", role),
					slog.String("redirect", decision.Redirect),
				}
				if identity != nil {
					attrs = append(attrs, slog.Int64("user_id", identity.ID), slog.String("role", identity.Role))
				}
				ua.logger.Debug("Доступ к странице запрещён", attrs...)
				http.Redirect(w, r, decision.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity кладёт identity в контекст.
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, identity)
}

// IdentityFromContext извлекает identity из контекста запроса.
// Возвращает nil, если пользователь не аутентифицирован.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(ContextKeyIdentity).(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}
