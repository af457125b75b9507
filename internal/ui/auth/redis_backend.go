package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix — префикс ключей сессий в Redis.
const redisKeyPrefix = "tender:session:"

// RedisBackend хранит сессии в Redis как JSON с TTL ключа.
// Подходит для нескольких реплик портала.
type RedisBackend struct {
	client *redis.Client
}

// RedisConfig — параметры подключения к Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisBackend создаёт клиент Redis. Подключение проверяется через Ping.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis %s: %w", cfg.Addr, err)
	}
	return &RedisBackend{client: client}, nil
}

// NewRedisBackendFromClient оборачивает готовый клиент (для тестов).
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Name — имя бэкенда.
func (b *RedisBackend) Name() string { return "redis" }

// Get читает сессию по ID.
func (b *RedisBackend) Get(ctx context.Context, id string) (*SessionData, error) {
	raw, err := b.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCorrupt, err)
	}
	if data.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return &data, nil
}

// Set сохраняет сессию с TTL ключа.
func (b *RedisBackend) Set(ctx context.Context, data *SessionData, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	return b.client.Set(ctx, redisKeyPrefix+data.ID, raw, ttl).Err()
}

// Delete удаляет сессию.
func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.client.Del(ctx, redisKeyPrefix+id).Err()
}

// CheckReady проверяет доступность Redis для /health/ready.
func (b *RedisBackend) CheckReady(ctx context.Context) (status string, message string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := b.client.Ping(ctx).Err(); err != nil {
		return "fail", fmt.Sprintf("Redis недоступен: %v", err)
	}
	return "ok", "подключение активно"
}

// Close закрывает клиент Redis.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
