package models

import (
	"time"

	"github.com/google/uuid"
)

// Account — учётная запись пользователя.
//
// PasswordHash и PasswordSalt никогда не отдаются наружу —
// для ответов API используется публичная проекция PublicAccount.
type Account struct {
	ID            uuid.UUID
	Email         string
	Nickname      string
	Birthday      string
	Gender        string
	PhoneNumber   string
	VerifiedEmail bool
	PasswordHash  string
	PasswordSalt  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicAccount — публичная проекция аккаунта без секретов (хэша и соли).
type PublicAccount struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Nickname      string `json:"nickname,omitempty"`
	Birthday      string `json:"birthday,omitempty"`
	Gender        string `json:"gender,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	VerifiedEmail bool   `json:"verified_email"`
	CreatedAt     int64  `json:"created_at"`
}

// Public возвращает публичную проекцию аккаунта.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:            a.ID.String(),
		Email:         a.Email,
		Nickname:      a.Nickname,
		Birthday:      a.Birthday,
		Gender:        a.Gender,
		PhoneNumber:   a.PhoneNumber,
		VerifiedEmail: a.VerifiedEmail,
		CreatedAt:     a.CreatedAt.Unix(),
	}
}
