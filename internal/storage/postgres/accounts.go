package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

// SaveAccount создаёт новый аккаунт в БД.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts(id, email, nickname, birthday, gender, phone_number,
		                     verified_email, password_hash, password_salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Nickname,
		account.Birthday,
		account.Gender,
		account.PhoneNumber,
		account.VerifiedEmail,
		account.PasswordHash,
		account.PasswordSalt,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

const accountColumns = `id, email, nickname, birthday, gender, phone_number,
	verified_email, password_hash, password_salt, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Nickname,
		&account.Birthday,
		&account.Gender,
		&account.PhoneNumber,
		&account.VerifiedEmail,
		&account.PasswordHash,
		&account.PasswordSalt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// AccountByEmail находит аккаунт по email.
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.postgres.AccountByEmail"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// AccountByID находит аккаунт по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// UpdateAccountInfo обновляет профильные поля аккаунта.
func (s *Storage) UpdateAccountInfo(ctx context.Context, id uuid.UUID, nickname string) error {
	const op = "storage.postgres.UpdateAccountInfo"

	query := `
		UPDATE accounts
		SET nickname = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, nickname)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdatePassword заменяет пару (хэш, соль) пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
		UPDATE accounts
		SET password_hash = $2, password_salt = $3, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, passwordHash, passwordSalt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdateEmailVerified выставляет признак подтверждённого email.
func (s *Storage) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	const op = "storage.postgres.UpdateEmailVerified"

	query := `
		UPDATE accounts
		SET verified_email = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, verified)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
