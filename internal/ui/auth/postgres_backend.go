package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend хранит сессии в таблице portal_sessions.
// Схема создаётся миграциями пакета database.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresBackend создаёт бэкенд поверх пула подключений.
func NewPostgresBackend(pool *pgxpool.Pool, logger *slog.Logger) *PostgresBackend {
	return &PostgresBackend{
		pool:   pool,
		logger: logger.With(slog.String("component", "session_postgres")),
	}
}

// Name — имя бэкенда.
func (b *PostgresBackend) Name() string { return "postgres" }

// Get читает неистёкшую сессию по ID.
func (b *PostgresBackend) Get(ctx context.Context, id string) (*SessionData, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx,
		`SELECT data FROM portal_sessions WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCorrupt, err)
	}
	return &data, nil
}

// Set создаёт или перезаписывает сессию.
func (b *PostgresBackend) Set(ctx context.Context, data *SessionData, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	_, err = b.pool.Exec(ctx,
		`INSERT INTO portal_sessions (id, user_id, role, data, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET data = EXCLUDED.data, role = EXCLUDED.role, expires_at = EXCLUDED.expires_at`,
		data.ID, data.Identity.ID, data.Identity.Role, raw, time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	return nil
}

// Delete удаляет сессию.
func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM portal_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

// DeleteExpired удаляет истёкшие сессии. Возвращает число удалённых строк.
func (b *PostgresBackend) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM portal_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки сессий: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunCleanup периодически удаляет истёкшие сессии до отмены ctx.
func (b *PostgresBackend) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.DeleteExpired(ctx)
			if err != nil {
				b.logger.Warn("Ошибка очистки истёкших сессий", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				b.logger.Debug("Истёкшие сессии удалены", slog.Int64("count", n))
			}
		}
	}
}
