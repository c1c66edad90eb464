// storage определяет контракты хранилища аккаунтов и записей токенов
// и сентинельные ошибки, на которые опирается сервисный слой.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (аккаунт/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email / пара token+type).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над аккаунтами.
type AccountStorage interface {
	// SaveAccount создаёт новый аккаунт.
	SaveAccount(ctx context.Context, account *models.Account) error
	// AccountByEmail находит аккаунт по email.
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// AccountByID находит аккаунт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdateAccountInfo обновляет профильные поля аккаунта.
	UpdateAccountInfo(ctx context.Context, id uuid.UUID, nickname string) error
	// UpdatePassword заменяет пару (хэш, соль) пароля.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt string) error
	// UpdateEmailVerified выставляет признак подтверждённого email.
	UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
}

// TokenStorage выполняет операции над записями токенов.
// Хранилище — источник истины по уникальности пары (token, type)
// и по признаку blacklisted.
type TokenStorage interface {
	// SaveToken сохраняет новую запись токена.
	SaveToken(ctx context.Context, record *models.TokenRecord) error
	// TokenByID находит запись по идентификатору.
	TokenByID(ctx context.Context, id uuid.UUID) (*models.TokenRecord, error)
	// TokenByValue находит запись по естественному ключу (token, type).
	TokenByValue(ctx context.Context, token string, tt models.TokenType) (*models.TokenRecord, error)
	// BlacklistToken атомарно помечает запись отозванной и возвращает её
	// состояние после обновления.
	BlacklistToken(ctx context.Context, id uuid.UUID) (*models.TokenRecord, error)
	// DeleteToken удаляет запись по естественному ключу.
	DeleteToken(ctx context.Context, token string, tt models.TokenType) error
	// DeleteExpiredTokens удаляет все просроченные записи.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	AccountStorage
	TokenStorage
	Close()
}
