package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Backend — серверное хранилище записей сессий по ID.
type Backend interface {
	// Name — имя бэкенда для логов и метрик.
	Name() string
	// Get возвращает сессию или ErrSessionNotFound.
	Get(ctx context.Context, id string) (*SessionData, error)
	// Set сохраняет сессию на ttl.
	Set(ctx context.Context, data *SessionData, ttl time.Duration) error
	// Delete удаляет сессию. Отсутствие записи не ошибка.
	Delete(ctx context.Context, id string) error
}

// ServerStore хранит сессии в Backend, в cookie — только случайный ID.
// Logout удаляет запись на сервере, поэтому украденный cookie
// после выхода бесполезен.
type ServerStore struct {
	backend Backend
	secure  bool
	logger  *slog.Logger
}

// NewServerStore создаёт хранилище с серверным бэкендом.
func NewServerStore(backend Backend, secure bool, logger *slog.Logger) *ServerStore {
	return &ServerStore{
		backend: backend,
		secure:  secure,
		logger:  logger.With(slog.String("component", "session_store"), slog.String("backend", backend.Name())),
	}
}

// Load читает ID из cookie и загружает запись из бэкенда.
// Неизвестный ID — нет сессии (nil, nil), сбой бэкенда — ErrStoreUnavailable.
func (s *ServerStore) Load(r *http.Request) (*SessionData, error) {
	id, ok := sessionID(r)
	if !ok {
		return nil, nil
	}

	data, err := s.backend.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		if errors.Is(err, ErrSessionCorrupt) {
			return nil, err
		}
		sessionBackendErrorsTotal.WithLabelValues(s.backend.Name()).Inc()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return data, nil
}

// Save сохраняет запись и выставляет cookie с её ID.
// Предыдущая сессия этого браузера удаляется.
func (s *ServerStore) Save(w http.ResponseWriter, r *http.Request, data *SessionData) error {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}

	if oldID, ok := sessionID(r); ok && oldID != data.ID {
		if err := s.backend.Delete(r.Context(), oldID); err != nil {
			s.logger.Warn("Не удалось удалить предыдущую сессию",
				slog.String("error", err.Error()),
			)
		}
	}

	ttl := data.TTL()
	if ttl <= 0 {
		return errors.New("сессия уже истекла")
	}
	if err := s.backend.Set(r.Context(), data, ttl); err != nil {
		sessionBackendErrorsTotal.WithLabelValues(s.backend.Name()).Inc()
		return fmt.Errorf("сохранение сессии: %w", err)
	}

	setSessionCookie(w, data.ID, maxAge(data), s.secure)
	return nil
}

// Clear удаляет запись в бэкенде и cookie. Cookie удаляется даже
// при ошибке бэкенда.
func (s *ServerStore) Clear(w http.ResponseWriter, r *http.Request) error {
	setSessionCookie(w, "", -1, s.secure)

	id, ok := sessionID(r)
	if !ok {
		return nil
	}
	if err := s.backend.Delete(r.Context(), id); err != nil {
		sessionBackendErrorsTotal.WithLabelValues(s.backend.Name()).Inc()
		return fmt.Errorf("удаление сессии: %w", err)
	}
	return nil
}

// sessionID извлекает ID сессии из cookie. Значения, не похожие
// на UUID, отбрасываются до обращения к бэкенду.
func sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}
