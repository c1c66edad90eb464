package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/storage"
)

const tokenColumns = `id, account_id, type, token, blacklisted, created_at, expires_at`

func scanToken(row pgx.Row) (*models.TokenRecord, error) {
	var record models.TokenRecord
	err := row.Scan(
		&record.ID,
		&record.AccountID,
		&record.Type,
		&record.Token,
		&record.Blacklisted,
		&record.CreatedAt,
		&record.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// SaveToken сохраняет новую запись токена.
// Нарушение уникальности (token, type) транслируется в ErrAlreadyExists.
func (s *Storage) SaveToken(ctx context.Context, record *models.TokenRecord) error {
	const op = "storage.postgres.SaveToken"

	query := `
		INSERT INTO tokens(id, account_id, type, token, blacklisted, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		record.ID,
		record.AccountID,
		record.Type,
		record.Token,
		record.Blacklisted,
		record.CreatedAt,
		record.ExpiresAt,
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

// TokenByID находит запись токена по идентификатору.
func (s *Storage) TokenByID(ctx context.Context, id uuid.UUID) (*models.TokenRecord, error) {
	const op = "storage.postgres.TokenByID"

	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE id = $1`

	record, err := scanToken(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return record, nil
}

// TokenByValue находит запись по естественному ключу (token, type).
func (s *Storage) TokenByValue(ctx context.Context, token string, tt models.TokenType) (*models.TokenRecord, error) {
	const op = "storage.postgres.TokenByValue"

	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE token = $1 AND type = $2`

	record, err := scanToken(s.db.QueryRow(ctx, query, token, tt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return record, nil
}

// BlacklistToken атомарно помечает запись отозванной и возвращает
// её состояние после обновления.
func (s *Storage) BlacklistToken(ctx context.Context, id uuid.UUID) (*models.TokenRecord, error) {
	const op = "storage.postgres.BlacklistToken"

	query := `
		UPDATE tokens
		SET blacklisted = TRUE
		WHERE id = $1
		RETURNING ` + tokenColumns

	record, err := scanToken(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return record, nil
}

// DeleteToken удаляет запись по естественному ключу.
func (s *Storage) DeleteToken(ctx context.Context, token string, tt models.TokenType) error {
	const op = "storage.postgres.DeleteToken"

	query := `DELETE FROM tokens WHERE token = $1 AND type = $2`

	cmdTag, err := s.db.Exec(ctx, query, token, tt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteExpiredTokens удаляет все просроченные записи.
// Вызывается фоновым janitor'ом: ядро не полагается на то, что
// просроченная запись ещё существует.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredTokens"

	query := `DELETE FROM tokens WHERE expires_at <= $1`

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
