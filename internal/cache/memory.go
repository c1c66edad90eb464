package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

// Memory — процессный кэш чёрного списка на обычной map.
// Подходит для single-instance развёртываний и локальной разработки;
// при нескольких экземплярах сервиса используйте Redis-бэкенд.
type Memory struct {
	store  storage.TokenStorage
	prefix string

	mu      sync.RWMutex
	entries map[string]bool
}

var _ Cache = (*Memory)(nil)

// NewMemory создаёт in-memory кэш поверх хранилища токенов.
// Если prefix пустой — используется "token:".
func NewMemory(store storage.TokenStorage, prefix string) *Memory {
	if prefix == "" {
		prefix = tokenKeyPrefix
	}

	return &Memory{
		store:   store,
		prefix:  prefix,
		entries: make(map[string]bool),
	}
}

// IsBlacklisted отвечает из кэша; при промахе перечитывает запись из
// хранилища и кэширует результат. Неизвестный токен считается отозванным.
func (m *Memory) IsBlacklisted(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "cache.memory.IsBlacklisted"

	key := formatKey(m.prefix, id)

	m.mu.RLock()
	blacklisted, ok := m.entries[key]
	m.mu.RUnlock()

	if ok {
		return blacklisted, nil
	}

	record, blacklisted, err := loadFromStorage(ctx, m.store, id)
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}

	if record != nil {
		m.mu.Lock()
		m.entries[key] = blacklisted
		m.mu.Unlock()
	}

	return blacklisted, nil
}

// CacheToken кладёт признак отзыва в кэш, затирая существующий.
func (m *Memory) CacheToken(_ context.Context, record *models.TokenRecord) error {
	key := formatKey(m.prefix, record.ID)

	m.mu.Lock()
	m.entries[key] = record.Blacklisted
	m.mu.Unlock()

	return nil
}

// UncacheToken убирает запись из кэша.
func (m *Memory) UncacheToken(_ context.Context, id uuid.UUID) error {
	key := formatKey(m.prefix, id)

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

// Close реализует Cache; для in-memory бэкенда освобождать нечего.
func (m *Memory) Close() error { return nil }
