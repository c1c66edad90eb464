package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/cache"
	"github.com/rescuelink/account-service/internal/service"
	"github.com/rescuelink/account-service/internal/token"
	apierrors "github.com/rescuelink/account-service/internal/transport/http/errors"
)

type claimsKey struct{}

// Auth пропускает запрос дальше только с пригодным bearer-токеном.
//
// Порядок проверок (дешёвые — до криптографии):
//  1. заголовок Authorization обязателен;
//  2. схема: ровно два слова, первое — "bearer" без учёта регистра;
//  3. подпись/срок/алгоритм токена (кодек);
//  4. jti обязан быть валидным UUID;
//  5. токен не в чёрном списке (кэш, fail-closed).
//
// Любой отказ — 401 без уточнения причины. Прошедшие claims кладутся
// в контекст и доступны через ClaimsFromContext.
func Auth(codec *token.Codec, blacklist cache.Cache) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			parts := strings.Fields(auth)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			claims, err := codec.VerifyToken(parts[1])
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			tokenID, err := uuid.Parse(claims.ID)
			if err != nil {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			blacklisted, err := blacklist.IsBlacklisted(r.Context(), tokenID)
			if err != nil || blacklisted {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext достаёт claims авторизованного запроса из контекста.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok && claims != nil
}
