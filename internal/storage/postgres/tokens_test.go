package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

func saveAccountAndToken(t *testing.T, st *Storage, tt models.TokenType, createdAt time.Time) *models.TokenRecord {
	t.Helper()

	ctx := context.Background()
	a := newDBAccount()
	require.NoError(t, st.SaveAccount(ctx, a))

	record := models.NewTokenRecord(uuid.New(), a.ID, tt, uuid.NewString(), createdAt)
	require.NoError(t, st.SaveToken(ctx, record))
	return record
}

// TestIntegration_SaveToken_And_Lookups_OK — сохранение записи токена
// и поиск по идентификатору и естественному ключу (token, type).
func TestIntegration_SaveToken_And_Lookups_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	record := saveAccountAndToken(t, st, models.TokenTypeJWT, time.Now().UTC())

	gotByID, err := st.TokenByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, record.Token, gotByID.Token)
	require.Equal(t, models.TokenTypeJWT, gotByID.Type)
	require.False(t, gotByID.Blacklisted)
	require.WithinDuration(t, record.ExpiresAt, gotByID.ExpiresAt, time.Second)

	gotByValue, err := st.TokenByValue(ctx, record.Token, record.Type)
	require.NoError(t, err)
	require.Equal(t, record.ID, gotByValue.ID)
}

// TestIntegration_SaveToken_UniquePair — одинаковое значение токена
// допустимо для разных типов, но не для одного.
func TestIntegration_SaveToken_UniquePair(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	record := saveAccountAndToken(t, st, models.TokenTypeEmailVerification, time.Now().UTC())

	dup := models.NewTokenRecord(uuid.New(), record.AccountID, record.Type, record.Token, time.Now().UTC())
	require.ErrorIs(t, st.SaveToken(ctx, dup), storage.ErrAlreadyExists)

	otherType := models.NewTokenRecord(uuid.New(), record.AccountID, models.TokenTypePasswordReset, record.Token, time.Now().UTC())
	require.NoError(t, st.SaveToken(ctx, otherType))
}

// TestIntegration_BlacklistToken — атомарный отзыв возвращает пост-образ записи.
func TestIntegration_BlacklistToken(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	record := saveAccountAndToken(t, st, models.TokenTypeJWT, time.Now().UTC())

	got, err := st.BlacklistToken(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, got.Blacklisted)
	require.Equal(t, record.ID, got.ID)

	_, err = st.BlacklistToken(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_DeleteToken — удаление по естественному ключу.
func TestIntegration_DeleteToken(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	record := saveAccountAndToken(t, st, models.TokenTypePasswordReset, time.Now().UTC())

	require.NoError(t, st.DeleteToken(ctx, record.Token, record.Type))

	_, err := st.TokenByValue(ctx, record.Token, record.Type)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, st.DeleteToken(ctx, record.Token, record.Type), storage.ErrNotFound)
}

// TestIntegration_DeleteExpiredTokens — janitor удаляет только просроченные записи.
func TestIntegration_DeleteExpiredTokens(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	// Создана 4 дня назад: срок сброса пароля (3 дня) истёк.
	expired := saveAccountAndToken(t, st, models.TokenTypePasswordReset, time.Now().UTC().AddDate(0, 0, -4))
	alive := saveAccountAndToken(t, st, models.TokenTypeJWT, time.Now().UTC())

	require.NoError(t, st.DeleteExpiredTokens(ctx, time.Now().UTC()))

	_, err := st.TokenByID(ctx, expired.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.TokenByID(ctx, alive.ID)
	require.NoError(t, err)
}
