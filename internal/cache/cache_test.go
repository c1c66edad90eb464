package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
	"github.com/rescuelink/account-service/mocks"
)

func newRecord(t *testing.T, blacklisted bool) *models.TokenRecord {
	t.Helper()

	record := models.NewTokenRecord(uuid.New(), uuid.New(), models.TokenTypeJWT, uuid.NewString(), time.Now().UTC())
	record.Blacklisted = blacklisted
	return record
}

func TestMemory_IsBlacklisted_MissUnknownToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	id := uuid.New()

	// Неизвестный токен считается отозванным и НЕ кэшируется:
	// повторный запрос снова идёт в хранилище.
	st.EXPECT().TokenByID(gomock.Any(), id).Return(nil, storage.ErrNotFound).Times(2)

	c := NewMemory(st, "")

	blacklisted, err := c.IsBlacklisted(context.Background(), id)
	require.NoError(t, err)
	require.True(t, blacklisted)

	blacklisted, err = c.IsBlacklisted(context.Background(), id)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func TestMemory_IsBlacklisted_MissPopulatesCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	record := newRecord(t, false)

	// Единственный поход в хранилище: второй запрос отвечает кэш.
	st.EXPECT().TokenByID(gomock.Any(), record.ID).Return(record, nil).Times(1)

	c := NewMemory(st, "")

	for i := 0; i < 2; i++ {
		blacklisted, err := c.IsBlacklisted(context.Background(), record.ID)
		require.NoError(t, err)
		require.False(t, blacklisted)
	}
}

func TestMemory_IsBlacklisted_StorageErrorFailsClosed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	id := uuid.New()

	st.EXPECT().TokenByID(gomock.Any(), id).Return(nil, errors.New("db down"))

	c := NewMemory(st, "")

	blacklisted, err := c.IsBlacklisted(context.Background(), id)
	require.Error(t, err)
	require.True(t, blacklisted)
}

func TestMemory_CacheToken_Overwrites(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	record := newRecord(t, false)

	c := NewMemory(st, "")
	ctx := context.Background()

	require.NoError(t, c.CacheToken(ctx, record))

	blacklisted, err := c.IsBlacklisted(ctx, record.ID)
	require.NoError(t, err)
	require.False(t, blacklisted)

	record.Blacklisted = true
	require.NoError(t, c.CacheToken(ctx, record))

	blacklisted, err = c.IsBlacklisted(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func TestMemory_UncacheToken_ForcesReload(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	record := newRecord(t, false)
	ctx := context.Background()

	c := NewMemory(st, "")
	require.NoError(t, c.CacheToken(ctx, record))

	// После uncache токен перечитывается из хранилища — уже отозванным.
	revoked := *record
	revoked.Blacklisted = true
	st.EXPECT().TokenByID(gomock.Any(), record.ID).Return(&revoked, nil)

	require.NoError(t, c.UncacheToken(ctx, record.ID))

	blacklisted, err := c.IsBlacklisted(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func newRedisCache(t *testing.T, st storage.TokenStorage) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	c, err := NewRedis("redis://"+mr.Addr(), "", st)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedis_CacheHit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	record := newRecord(t, true)
	ctx := context.Background()

	c, mr := newRedisCache(t, st)

	require.NoError(t, c.CacheToken(ctx, record))
	require.True(t, mr.Exists("token:"+record.ID.String()))

	// Хранилище не трогаем: ответ из Redis.
	blacklisted, err := c.IsBlacklisted(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func TestRedis_MissPopulatesWithTTL(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	record := newRecord(t, false)
	ctx := context.Background()

	st.EXPECT().TokenByID(gomock.Any(), record.ID).Return(record, nil).Times(1)

	c, mr := newRedisCache(t, st)

	blacklisted, err := c.IsBlacklisted(ctx, record.ID)
	require.NoError(t, err)
	require.False(t, blacklisted)

	key := "token:" + record.ID.String()
	require.True(t, mr.Exists(key))
	require.Greater(t, mr.TTL(key), time.Duration(0))

	// Повторный запрос — из кэша.
	blacklisted, err = c.IsBlacklisted(ctx, record.ID)
	require.NoError(t, err)
	require.False(t, blacklisted)
}

func TestRedis_ExpiredRecordNotCached(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	ctx := context.Background()

	record := models.NewTokenRecord(uuid.New(), uuid.New(), models.TokenTypeJWT, uuid.NewString(),
		time.Now().UTC().AddDate(0, 0, -61))
	require.True(t, record.Expired(time.Now().UTC()))

	c, mr := newRedisCache(t, st)

	require.NoError(t, c.CacheToken(ctx, record))
	require.False(t, mr.Exists("token:"+record.ID.String()))
}

func TestRedis_UncacheToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	record := newRecord(t, false)
	ctx := context.Background()

	c, mr := newRedisCache(t, st)

	require.NoError(t, c.CacheToken(ctx, record))
	require.NoError(t, c.UncacheToken(ctx, record.ID))
	require.False(t, mr.Exists("token:"+record.ID.String()))
}

func TestRedis_DownFailsClosed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	c, mr := newRedisCache(t, st)

	mr.Close()

	blacklisted, err := c.IsBlacklisted(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, blacklisted)
}

func TestNewRedis_BadURL(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewRedis("not-a-url", "", mocks.NewMockStorage(ctrl))
	require.Error(t, err)
}
