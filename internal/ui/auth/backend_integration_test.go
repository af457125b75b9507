package auth

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/tender-portal/internal/config"
	"github.com/bigkaa/tender-portal/internal/database"
	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
)

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}
}

// setupPostgresBackend запускает PostgreSQL, применяет миграции и
// возвращает бэкенд сессий.
func setupPostgresBackend(t *testing.T) *PostgresBackend {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("tender_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "Не удалось запустить PostgreSQL контейнер")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &config.Config{
		SessionBackend: config.SessionBackendPostgres,
		DBHost:         host,
		DBPort:         port.Int(),
		DBName:         "tender_test",
		DBUser:         "portal",
		DBPassword:     "test-password",
		DBSSLMode:      "disable",
	}

	logger := discardLogger()
	require.NoError(t, database.Migrate(cfg, logger))
	pool, err := database.Connect(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewPostgresBackend(pool, logger)
}

// setupRedisBackend запускает Redis в контейнере.
func setupRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Не удалось запустить Redis контейнер")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	backend, err := NewRedisBackend(ctx, RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

// exerciseBackend — общий сценарий для серверных бэкендов.
func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	data := &SessionData{
		ID:        "3f1b2c4d-0000-4000-8000-000000000001",
		Identity:  model.Identity{ID: 11, Email: "a@b.com", Role: rbac.RoleAdmin, Token: "tok"},
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}

	require.NoError(t, backend.Set(ctx, data, time.Hour))

	got, err := backend.Get(ctx, data.ID)
	require.NoError(t, err)
	assert.Equal(t, data.Identity, got.Identity)
	assert.Equal(t, data.ExpiresAt, got.ExpiresAt)

	// Перезапись
	data.Identity.Token = "tok-2"
	require.NoError(t, backend.Set(ctx, data, time.Hour))
	got, err = backend.Get(ctx, data.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Identity.Token)

	require.NoError(t, backend.Delete(ctx, data.ID))
	_, err = backend.Get(ctx, data.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Повторное удаление — не ошибка
	assert.NoError(t, backend.Delete(ctx, data.ID))
}

func TestPostgresBackend(t *testing.T) {
	backend := setupPostgresBackend(t)
	exerciseBackend(t, backend)
}

func TestPostgresBackendDeleteExpired(t *testing.T) {
	backend := setupPostgresBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, &SessionData{
		ID:        "3f1b2c4d-0000-4000-8000-000000000002",
		Identity:  model.Identity{ID: 1, Role: rbac.RoleUser},
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, -time.Minute))

	n, err := backend.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisBackend(t *testing.T) {
	backend := setupRedisBackend(t)
	exerciseBackend(t, backend)

	status, _ := backend.CheckReady(context.Background())
	assert.Equal(t, "ok", status)
}

func TestRedisBackendMissingKey(t *testing.T) {
	backend := setupRedisBackend(t)
	_, err := backend.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NotErrorIs(t, err, redis.Nil)
}
