package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/tender-portal/internal/config"
)

func TestMigrateURL(t *testing.T) {
	got := migrateURL("postgres://portal:p%40ss@db:5432/sessions?sslmode=disable")
	want := "pgx5://portal:p%40ss@db:5432/sessions?sslmode=disable"
	if got != want {
		t.Errorf("migrateURL() = %q, ожидали %q", got, want)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("чтение встроенных миграций: %v", err)
	}
	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("миграций up=%d down=%d, ожидается парное ненулевое число", up, down)
	}
}

// sessionsDB поднимает PostgreSQL в контейнере и возвращает конфиг портала
// с бэкендом сессий postgres.
func sessionsDB(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("portal_sessions_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal-secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("контейнер PostgreSQL не запустился: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("остановка контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("порт контейнера: %v", err)
	}

	t.Setenv("TP_API_URL", "http://tender-api:8000/api/auth")
	t.Setenv("TP_SESSION_BACKEND", config.SessionBackendPostgres)
	t.Setenv("TP_DB_HOST", host)
	t.Setenv("TP_DB_PORT", port.Port())
	t.Setenv("TP_DB_NAME", "portal_sessions_test")
	t.Setenv("TP_DB_USER", "portal")
	t.Setenv("TP_DB_PASSWORD", "portal-secret")
	t.Setenv("TP_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("конфигурация: %v", err)
	}
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrateCreatesSessionsTable(t *testing.T) {
	cfg := sessionsDB(t)
	logger := quietLogger()

	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate(): %v", err)
	}
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("повторный Migrate(): %v", err)
	}

	ctx := context.Background()
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect(): %v", err)
	}
	defer pool.Close()

	var indexes int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM pg_indexes WHERE tablename = 'portal_sessions' AND indexname LIKE 'idx_portal_sessions_%'`,
	).Scan(&indexes)
	if err != nil {
		t.Fatalf("запрос индексов: %v", err)
	}
	if indexes != 2 {
		t.Errorf("индексов portal_sessions: %d, ожидается 2", indexes)
	}
}

func TestReadinessCountsActiveSessions(t *testing.T) {
	cfg := sessionsDB(t)
	logger := quietLogger()
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate(): %v", err)
	}

	ctx := context.Background()
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect(): %v", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		INSERT INTO portal_sessions (id, user_id, role, data, expires_at) VALUES
			('live', 5, 'user', '{}', NOW() + INTERVAL '1 hour'),
			('gone', 6, 'admin', '{}', NOW() - INTERVAL '1 hour')`)
	if err != nil {
		t.Fatalf("вставка сессий: %v", err)
	}

	checker := NewReadinessChecker(pool)
	status, msg := checker.CheckReady(ctx)
	if status != "ok" {
		t.Fatalf("CheckReady() = %q (%s), ожидается ok", status, msg)
	}
	if msg != "активных сессий: 1" {
		t.Errorf("сообщение = %q, истёкшая сессия не должна учитываться", msg)
	}
}
