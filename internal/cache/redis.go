package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

// Redis — разделяемый кэш чёрного списка поверх Redis.
// Запись хранится как Hash с полями: blk (0/1), exp (unix).
type Redis struct {
	store  storage.TokenStorage
	rdb    *redis.Client
	prefix string
}

var _ Cache = (*Redis)(nil)

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "token:".
func NewRedis(redisURL, prefix string, store storage.TokenStorage) (*Redis, error) {
	const op = "cache.redis.NewRedis"

	if prefix == "" {
		prefix = tokenKeyPrefix
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{store: store, rdb: rdb, prefix: prefix}, nil
}

// IsBlacklisted отвечает из Redis; при промахе перечитывает запись из
// хранилища и кэширует результат. Недоступность Redis трактуется как
// отзыв: лучше отклонить валидный запрос, чем пустить отозванный токен.
func (c *Redis) IsBlacklisted(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "cache.redis.IsBlacklisted"

	key := formatKey(c.prefix, id)

	m, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) > 0 {
		return m["blk"] == "1", nil
	}

	record, blacklisted, err := loadFromStorage(ctx, c.store, id)
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}

	if record != nil {
		if err := c.setRecord(ctx, record); err != nil {
			return blacklisted, fmt.Errorf("%s: %w", op, err)
		}
	}

	return blacklisted, nil
}

// CacheToken кладёт проекцию записи в Redis, затирая существующую.
func (c *Redis) CacheToken(ctx context.Context, record *models.TokenRecord) error {
	const op = "cache.redis.CacheToken"

	if err := c.setRecord(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UncacheToken убирает запись из Redis.
func (c *Redis) UncacheToken(ctx context.Context, id uuid.UUID) error {
	const op = "cache.redis.UncacheToken"

	if err := c.rdb.Del(ctx, formatKey(c.prefix, id)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (c *Redis) Close() error { return c.rdb.Close() }

// setRecord сохраняет запись с TTL до её истечения: после очистки
// просроченных записей в хранилище ключ в Redis тоже исчезает.
func (c *Redis) setRecord(ctx context.Context, record *models.TokenRecord) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	key := formatKey(c.prefix, record.ID)
	kv := map[string]string{
		"blk": boolTo01(record.Blacklisted),
		"exp": strconv.FormatInt(record.ExpiresAt.Unix(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, kv)
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
