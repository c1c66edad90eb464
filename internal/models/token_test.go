package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestExpirationTime_ByType(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	require.Equal(t, createdAt.AddDate(0, 0, 60), ExpirationTime(createdAt, TokenTypeJWT))
	require.Equal(t, createdAt.AddDate(0, 0, 7), ExpirationTime(createdAt, TokenTypeEmailVerification))
	require.Equal(t, createdAt.AddDate(0, 0, 3), ExpirationTime(createdAt, TokenTypePasswordReset))
}

func TestExpirationTime_Pure(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	first := ExpirationTime(createdAt, TokenTypeJWT)
	second := ExpirationTime(createdAt, TokenTypeJWT)
	require.Equal(t, first, second)
}

func TestNewTokenRecord_DerivesExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	id := uuid.New()
	accountID := uuid.New()

	rec := NewTokenRecord(id, accountID, TokenTypePasswordReset, "opaque", now)

	require.Equal(t, id, rec.ID)
	require.Equal(t, accountID, rec.AccountID)
	require.Equal(t, TokenTypePasswordReset, rec.Type)
	require.Equal(t, "opaque", rec.Token)
	require.False(t, rec.Blacklisted)
	require.Equal(t, ExpirationTime(now, TokenTypePasswordReset), rec.ExpiresAt)
}

func TestTokenRecord_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	rec := NewTokenRecord(uuid.New(), uuid.New(), TokenTypeJWT, "opaque", now)

	require.False(t, rec.Expired(now))
	require.False(t, rec.Expired(rec.ExpiresAt))
	require.True(t, rec.Expired(rec.ExpiresAt.Add(time.Second)))
}

func TestAccount_Public_ExcludesSecrets(t *testing.T) {
	t.Parallel()

	acc := &Account{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Nickname:     "user",
		PasswordHash: "hash",
		PasswordSalt: "salt",
		CreatedAt:    time.Now().UTC(),
	}

	pub := acc.Public()
	require.Equal(t, acc.ID.String(), pub.ID)
	require.Equal(t, acc.Email, pub.Email)
	require.Equal(t, acc.Nickname, pub.Nickname)
	require.Equal(t, acc.CreatedAt.Unix(), pub.CreatedAt)
}
