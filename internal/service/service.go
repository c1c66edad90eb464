// service содержит бизнес-логику сервиса аккаунтов:
// регистрацию/аутентификацию, смену пароля, подтверждение email,
// сброс пароля и жизненный цикл токенов (выпуск, отзыв, очистка).
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилище и кэш потокобезопасны.
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP-коды
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/rescuelink/account-service/internal/cache"
	"github.com/rescuelink/account-service/internal/storage"
	"github.com/rescuelink/account-service/internal/token"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или аккаунт не найден.
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен некорректен, просрочен, отозван
	// или отсутствует в хранилище. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmailTaken — email уже занят другим аккаунтом.
	// Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrSamePassword — новый пароль совпадает с текущим.
	// Транспорт: HTTP 400.
	ErrSamePassword = errors.New("new password matches current")

	// ErrAccountNotFound — аккаунт не найден.
	// Транспорт: HTTP 404.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTokenCollision — исчерпаны попытки сгенерировать уникальную
	// пару (token, type) после нескольких ретраев. Транспорт: HTTP 500.
	ErrTokenCollision = errors.New("token collision")

	// ErrInvalidEmail — email имеет некорректный формат.
	// Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyPassword — пароль пустой.
	// Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrWeakPassword — пароль короче минимально допустимой длины.
	// Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")
)

// Service описывает бизнес-логику сервиса аккаунтов.
type Service struct {
	storage storage.Storage
	cache   cache.Cache
	codec   *token.Codec
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cache cache.Cache, codec *token.Codec) *Service {
	return &Service{
		storage: storage,
		cache:   cache,
		codec:   codec,
	}
}
