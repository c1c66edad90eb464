package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/pkg/log"
	"github.com/rescuelink/account-service/internal/storage"
	"github.com/rescuelink/account-service/internal/token"
)

// maxTokenAttempts — первая попытка плюс три ретрая при коллизии
// пары (token, type).
const maxTokenAttempts = 4

// Длина opaque-токена в байтах (до hex-кодирования).
const opaqueTokenLength = 128

// issueJWT выпускает подписанный bearer-токен для аккаунта и сохраняет
// его запись в хранилище. Срок действия claims и записи выводится из
// типа токена, jti совпадает с идентификатором записи.
//
// При коллизии пары (token, type) выпуск повторяется с новым jti;
// после исчерпания попыток возвращается ErrTokenCollision.
func (s *Service) issueJWT(ctx context.Context, accountID uuid.UUID) (string, error) {
	const op = "service.tokens.issueJWT"

	lg := log.From(ctx)

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		id := uuid.New()
		now := time.Now().UTC()

		claims := &token.Claims{
			AccountID: accountID.String(),
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        id.String(),
				Subject:   accountID.String(),
				Issuer:    s.codec.Issuer(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(models.ExpirationTime(now, models.TokenTypeJWT)),
			},
		}

		signed, err := s.codec.CreateToken(claims)
		if err != nil {
			lg.Error("token_sign_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		record := models.NewTokenRecord(id, accountID, models.TokenTypeJWT, signed, now)

		if err := s.storage.SaveToken(ctx, record); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — выпускаем заново с новым jti.
				continue
			}

			lg.Error("save_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		// Прогреваем кэш чёрного списка; ошибка кэша не фатальна —
		// промах перечитает запись из хранилища.
		if err := s.cache.CacheToken(ctx, record); err != nil {
			lg.Warn("cache_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}

		return signed, nil
	}

	lg.Error("token_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrTokenCollision)
}

// generateOpaqueToken создаёт случайный одноразовый токен
// (подтверждение email, сброс пароля) и сохраняет его запись.
//
// При коллизии пары (token, type) генерация повторяется;
// после исчерпания попыток возвращается ErrTokenCollision.
func (s *Service) generateOpaqueToken(ctx context.Context, accountID uuid.UUID, tt models.TokenType) (string, error) {
	const op = "service.tokens.generateOpaqueToken"

	lg := log.From(ctx)

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		b := make([]byte, opaqueTokenLength)
		_, _ = rand.Read(b)
		plain := hex.EncodeToString(b)

		record := models.NewTokenRecord(uuid.New(), accountID, tt, plain, time.Now().UTC())

		if err := s.storage.SaveToken(ctx, record); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				continue
			}

			lg.Error("save_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	lg.Error("token_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrTokenCollision)
}

// consumeOpaqueToken находит одноразовый токен по значению и типу и
// проверяет, что он пригоден: не просрочен и не отозван.
// Любая непригодность схлопывается в ErrInvalidToken.
func (s *Service) consumeOpaqueToken(ctx context.Context, plain string, tt models.TokenType) (*models.TokenRecord, error) {
	const op = "service.tokens.consumeOpaqueToken"

	record, err := s.storage.TokenByValue(ctx, plain, tt)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if record.Blacklisted || record.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return record, nil
}

// Logout отзывает токен: помечает запись отозванной в хранилище и
// обновляет кэш чёрного списка. Отзыв неизвестного (например, уже
// вычищенного просроченного) токена не считается ошибкой.
func (s *Service) Logout(ctx context.Context, tokenID uuid.UUID) error {
	const op = "service.tokens.Logout"

	lg := log.From(ctx)

	// Сначала убираем запись из кэша: до фиксации отзыва в хранилище
	// промах кэша перечитает актуальное состояние оттуда.
	if err := s.cache.UncacheToken(ctx, tokenID); err != nil {
		lg.Error("uncache_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	record, err := s.storage.BlacklistToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		lg.Error("blacklist_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.CacheToken(ctx, record); err != nil {
		lg.Warn("cache_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return nil
}

// PurgeExpiredTokens удаляет просроченные записи токенов.
// Вызывается фоновым janitor'ом по таймеру.
func (s *Service) PurgeExpiredTokens(ctx context.Context) error {
	const op = "service.tokens.PurgeExpiredTokens"

	if err := s.storage.DeleteExpiredTokens(ctx, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
