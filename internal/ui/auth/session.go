// Пакет auth — сессии портала: кто вошёл и с каким токеном API.
// Manager поверх сменного Store: зашифрованный cookie (AES-256-GCM)
// или серверное хранилище (memory, redis, postgres) с ID сессии в cookie.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
)

// Имя cookie сессии портала.
const SessionCookieName = "tender_session"

// ErrSessionNotFound — сессии с таким ID нет в серверном хранилище (или она истекла).
var ErrSessionNotFound = errors.New("сессия не найдена")

// ErrSessionCorrupt — запись сессии в хранилище не читается.
var ErrSessionCorrupt = errors.New("запись сессии повреждена")

// ErrStoreUnavailable — серверное хранилище сессий не ответило.
// Сама сессия при этом может быть действительной.
var ErrStoreUnavailable = errors.New("хранилище сессий недоступно")

// SessionData — запись сессии: identity вместе с токеном API.
type SessionData struct {
	// ID — идентификатор сессии (ключ серверного хранилища).
	ID string `json:"id"`
	// Identity — пользователь; Identity.Token — токен удалённого API.
	Identity model.Identity `json:"identity"`
	// ExpiresAt — время истечения сессии (Unix timestamp).
	ExpiresAt int64 `json:"expires_at"`
}

// IsExpired проверяет, истекла ли сессия.
func (s *SessionData) IsExpired() bool {
	return time.Now().Unix() >= s.ExpiresAt
}

// TTL — оставшееся время жизни сессии.
func (s *SessionData) TTL() time.Duration {
	return time.Until(time.Unix(s.ExpiresAt, 0))
}

// Store — способ хранения сессии между запросами.
type Store interface {
	// Load возвращает сессию запроса. nil, nil — сессии нет.
	Load(r *http.Request) (*SessionData, error)
	// Save сохраняет сессию и выставляет cookie в ответ.
	Save(w http.ResponseWriter, r *http.Request, data *SessionData) error
	// Clear удаляет сессию запроса и cookie.
	Clear(w http.ResponseWriter, r *http.Request) error
}

// Manager — хранилище сессии портала. Создаётся в main и явно
// передаётся в middleware и обработчики.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewManager создаёт менеджер сессий.
// ttl — время жизни сессии, если токен API не задаёт меньшее (см. TokenExpiry).
func NewManager(store Store, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "session_manager")),
	}
}

// Login сохраняет токен и identity, браузер становится аутентифицированным.
// Каждый вход получает новый ID сессии.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, token string, identity model.Identity) error {
	identity.Token = token

	expiresAt := time.Now().Add(m.ttl)
	if exp, ok := TokenExpiry(token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}

	data := &SessionData{
		ID:        uuid.NewString(),
		Identity:  identity,
		ExpiresAt: expiresAt.Unix(),
	}
	if err := m.store.Save(w, r, data); err != nil {
		sessionOpsTotal.WithLabelValues("login", "error").Inc()
		return err
	}

	sessionOpsTotal.WithLabelValues("login", "ok").Inc()
	m.logger.Info("Пользователь вошёл",
		slog.Int64("user_id", identity.ID),
		slog.String("role", identity.Role),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}

// Logout очищает токен и identity. Ошибка хранилища логируется:
// cookie удаляется в любом случае.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if err := m.store.Clear(w, r); err != nil {
		sessionOpsTotal.WithLabelValues("logout", "error").Inc()
		m.logger.Warn("Ошибка удаления сессии из хранилища",
			slog.String("error", err.Error()),
		)
		return
	}
	sessionOpsTotal.WithLabelValues("logout", "ok").Inc()
}

// Current возвращает identity текущей сессии или (nil, false),
// если пользователь не аутентифицирован.
func (m *Manager) Current(r *http.Request) (*model.Identity, bool) {
	data, err := m.store.Load(r)
	if err != nil || data == nil || data.IsExpired() {
		return nil, false
	}
	identity := data.Identity
	return &identity, true
}

// Resolve — Current для middleware: повреждённая, истёкшая или
// чужая по роли сессия удаляется вместе с cookie. Сбой хранилища
// сессию не трогает: запрос просто обслуживается как анонимный.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	data, err := m.store.Load(r)
	if errors.Is(err, ErrStoreUnavailable) {
		m.logger.Warn("Хранилище сессий недоступно",
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if err != nil {
		m.logger.Debug("Ошибка чтения сессии",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		m.Logout(w, r)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	if data.IsExpired() || !rbac.IsValidRole(data.Identity.Role) {
		m.logger.Debug("Сессия недействительна",
			slog.Int64("user_id", data.Identity.ID),
			slog.String("role", data.Identity.Role),
		)
		sessionOpsTotal.WithLabelValues("expire", "ok").Inc()
		m.Logout(w, r)
		return nil, false
	}
	identity := data.Identity
	return &identity, true
}
