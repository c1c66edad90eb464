// cache реализует кэш чёрного списка токенов, стоящий перед
// хранилищем: на каждый авторизованный запрос ответ "отозван ли токен?"
// по возможности отдаётся из кэша без похода в БД.
//
// Семантика IsBlacklisted (fail-closed):
//   - попадание в кэш — вернуть сохранённый признак blacklisted;
//   - промах — прочитать запись из хранилища; если записи нет
//     (неизвестный или уже удалённый просроченный токен) — токен
//     считается отозванным; иначе запись кладётся в кэш и возвращается
//     её признак.
//
// Кэш не инвалидируется по естественному истечению срока: просроченный,
// но не отозванный токен может читаться из кэша как "не отозван" до
// очистки хранилища. Это безопасно, потому что проверка подписи/срока
// в кодеке выполняется до обращения к кэшу.
package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

// Префикс ключа записи в кэше.
const tokenKeyPrefix = "token:"

// Cache — контракт кэша чёрного списка токенов.
type Cache interface {
	// IsBlacklisted сообщает, отозван ли токен с данным идентификатором.
	// Неизвестный токен считается отозванным.
	IsBlacklisted(ctx context.Context, id uuid.UUID) (bool, error)
	// CacheToken кладёт проекцию записи в кэш, затирая существующую.
	CacheToken(ctx context.Context, record *models.TokenRecord) error
	// UncacheToken убирает запись из кэша; следующий запрос по этому
	// идентификатору перечитает состояние из хранилища.
	UncacheToken(ctx context.Context, id uuid.UUID) error
	// Close освобождает ресурсы бэкенда.
	Close() error
}

func formatKey(prefix string, id uuid.UUID) string {
	if prefix == "" {
		prefix = tokenKeyPrefix
	}

	return prefix + id.String()
}

// loadFromStorage читает состояние токена из хранилища при промахе кэша.
// Отсутствующая запись трактуется как отозванный токен, ошибка хранилища
// тоже возвращает blacklisted=true, чтобы вызывающая сторона не пустила
// запрос дальше.
func loadFromStorage(ctx context.Context, store storage.TokenStorage, id uuid.UUID) (*models.TokenRecord, bool, error) {
	record, err := store.TokenByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, true, nil
		}

		return nil, true, err
	}

	return record, record.Blacklisted, nil
}
