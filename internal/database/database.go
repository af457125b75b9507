// Пакет database — PostgreSQL для бэкенда сессий postgres:
// пул pgx, схема portal_sessions (golang-migrate), проверка готовности.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/tender-portal/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Параметры пула: каждая страница портала — не больше одного запроса
// к таблице сессий, длинных транзакций нет.
const (
	maxConns          = 10
	minConns          = 1
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
	readyTimeout      = 3 * time.Second
)

// Connect открывает пул к базе сессий и проверяет его ping'ом.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("разбор DSN базы сессий: %w", err)
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = minConns
	poolCfg.MaxConnIdleTime = maxConnIdleTime
	poolCfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("создание пула базы сессий: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база сессий недоступна: %w", err)
	}

	logger.Info("База сессий подключена",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
		slog.Int("max_conns", maxConns),
	)
	return pool, nil
}

// Migrate приводит схему portal_sessions к последней версии.
// Повторный запуск без новых миграций ошибкой не считается.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(cfg.DatabaseURL()))
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("версия схемы: %w", err)
	}
	if dirty {
		return fmt.Errorf("схема сессий в состоянии dirty (версия %d), нужна ручная правка", version)
	}
	logger.Info("Схема сессий актуальна", slog.Uint64("version", uint64(version)))
	return nil
}

// migrateURL меняет схему postgres:// на pgx5:// (драйвер golang-migrate).
func migrateURL(databaseURL string) string {
	return "pgx5://" + strings.TrimPrefix(databaseURL, "postgres://")
}

// ReadinessChecker — готовность базы сессий для /health/ready.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности базы сессий.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// Name — ключ проверки в ответе /health/ready.
func (c *ReadinessChecker) Name() string {
	return "postgresql"
}

// CheckReady считает действующие сессии: запрос проверяет и соединение,
// и наличие схемы. Исчерпанный пул — degraded.
func (c *ReadinessChecker) CheckReady(ctx context.Context) (status string, message string) {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	var active int64
	err := c.pool.QueryRow(ctx,
		`SELECT count(*) FROM portal_sessions WHERE expires_at > NOW()`,
	).Scan(&active)
	if err != nil {
		return "fail", fmt.Sprintf("база сессий недоступна: %v", err)
	}

	stat := c.pool.Stat()
	if stat.MaxConns() > 0 && stat.AcquiredConns() >= stat.MaxConns() {
		return "degraded", fmt.Sprintf("пул исчерпан (%d/%d), активных сессий: %d",
			stat.AcquiredConns(), stat.MaxConns(), active)
	}
	return "ok", fmt.Sprintf("активных сессий: %d", active)
}
