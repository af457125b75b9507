package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryBackend — in-memory хранилище сессий на expirable LRU.
// Сессии живут в процессе: не переживают рестарт и не разделяются
// между репликами.
type MemoryBackend struct {
	cache *expirable.LRU[string, SessionData]
}

// NewMemoryBackend создаёт LRU на maxSize сессий.
// ttl — верхняя граница жизни записи; точный срок проверяется по ExpiresAt.
func NewMemoryBackend(maxSize int, ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		cache: expirable.NewLRU[string, SessionData](maxSize, nil, ttl),
	}
}

// Name — имя бэкенда.
func (b *MemoryBackend) Name() string { return "memory" }

// Get возвращает копию сессии.
func (b *MemoryBackend) Get(_ context.Context, id string) (*SessionData, error) {
	data, ok := b.cache.Get(id)
	if !ok || data.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return &data, nil
}

// Set сохраняет копию сессии.
func (b *MemoryBackend) Set(_ context.Context, data *SessionData, _ time.Duration) error {
	b.cache.Add(data.ID, *data)
	return nil
}

// Delete удаляет сессию.
func (b *MemoryBackend) Delete(_ context.Context, id string) error {
	b.cache.Remove(id)
	return nil
}

// Len — число сессий в памяти.
func (b *MemoryBackend) Len() int {
	return b.cache.Len()
}
