package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenType — тип выпущенного токена.
type TokenType string

const (
	// TokenTypeJWT — bearer-токен доступа (JWT).
	TokenTypeJWT TokenType = "jwt"
	// TokenTypeEmailVerification — одноразовый токен подтверждения email.
	TokenTypeEmailVerification TokenType = "emailVerification"
	// TokenTypePasswordReset — одноразовый токен сброса пароля.
	TokenTypePasswordReset TokenType = "passwordReset"
)

// Срок жизни токена в днях по типу.
var tokenTTLDays = map[TokenType]int{
	TokenTypeJWT:               60,
	TokenTypeEmailVerification: 7,
	TokenTypePasswordReset:     3,
}

// ExpirationTime возвращает момент истечения токена типа tt,
// выпущенного в createdAt. Чистая функция: срок всегда выводится
// из типа и момента создания и не задаётся независимо.
func ExpirationTime(createdAt time.Time, tt TokenType) time.Time {
	return createdAt.AddDate(0, 0, tokenTTLDays[tt])
}

// TokenRecord — запись о выпущенном токене в хранилище.
//
// Инварианты:
//   - пара (Token, Type) уникальна;
//   - ExpiresAt всегда равен ExpirationTime(CreatedAt, Type);
//   - запись мутируется только установкой Blacklisted=true.
type TokenRecord struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Type        TokenType
	Token       string
	Blacklisted bool
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// NewTokenRecord создаёт запись токена с выведенным сроком истечения.
// Единственная точка, в которой вычисляется ExpiresAt.
func NewTokenRecord(id, accountID uuid.UUID, tt TokenType, token string, createdAt time.Time) *TokenRecord {
	return &TokenRecord{
		ID:        id,
		AccountID: accountID,
		Type:      tt,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: ExpirationTime(createdAt, tt),
	}
}

// Expired сообщает, истёк ли токен к моменту now.
func (r *TokenRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
