package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

// Интеграционные тесты пакета postgres:
// - поднимают реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяют миграции из ./migrations;
// - проверяют happy-path, уникальность (email CITEXT, пара token+type)
//   и контрактные ошибки (storage.ErrNotFound / ErrAlreadyExists).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — определяет корень репозитория относительно текущего файла тестов.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный экземпляр PostgreSQL, применяет
// миграции и возвращает инициализированное хранилище с функцией очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_accounts.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, readMigration(t, "2_init_tokens.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newDBAccount() *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]),
		Nickname:     "nick",
		PasswordHash: "hash",
		PasswordSalt: "salt",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestIntegration_SaveAccount_And_Lookups_OK — happy-path:
// сохранение аккаунта и поиск по email (регистронезависимо) и по ID.
func TestIntegration_SaveAccount_And_Lookups_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	a := newDBAccount()

	require.NoError(t, st.SaveAccount(ctx, a))

	gotByEmail, err := st.AccountByEmail(ctx, a.Email)
	require.NoError(t, err)
	require.Equal(t, a.ID, gotByEmail.ID)
	require.WithinDuration(t, a.CreatedAt, gotByEmail.CreatedAt, time.Second)

	gotByID, err := st.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Email, gotByID.Email)
	require.Equal(t, "hash", gotByID.PasswordHash)
	require.Equal(t, "salt", gotByID.PasswordSalt)
}

// TestIntegration_SaveAccount_UniqueEmail_CaseInsensitive — конфликт
// уникальности email при различии только в регистре (CITEXT).
func TestIntegration_SaveAccount_UniqueEmail_CaseInsensitive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	a := newDBAccount()
	require.NoError(t, st.SaveAccount(ctx, a))

	b := newDBAccount()
	b.Email = strings.ToUpper(a.Email) // тот же email, другой регистр
	err := st.SaveAccount(ctx, b)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_AccountNotFound — отсутствие записи даёт storage.ErrNotFound.
func TestIntegration_AccountNotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	_, err := st.AccountByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.AccountByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UpdateAccountFields — обновления профиля, пароля и
// признака подтверждённого email; несуществующий аккаунт -> ErrNotFound.
func TestIntegration_UpdateAccountFields(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	a := newDBAccount()
	require.NoError(t, st.SaveAccount(ctx, a))

	require.NoError(t, st.UpdateAccountInfo(ctx, a.ID, "renamed"))
	require.NoError(t, st.UpdatePassword(ctx, a.ID, "new-hash", "new-salt"))
	require.NoError(t, st.UpdateEmailVerified(ctx, a.ID, true))

	got, err := st.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Nickname)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Equal(t, "new-salt", got.PasswordSalt)
	require.True(t, got.VerifiedEmail)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.ErrorIs(t, st.UpdateAccountInfo(ctx, uuid.New(), "x"), storage.ErrNotFound)
	require.ErrorIs(t, st.UpdatePassword(ctx, uuid.New(), "h", "s"), storage.ErrNotFound)
	require.ErrorIs(t, st.UpdateEmailVerified(ctx, uuid.New(), true), storage.ErrNotFound)
}
