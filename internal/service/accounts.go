package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/password"
	"github.com/rescuelink/account-service/internal/pkg/log"
	"github.com/rescuelink/account-service/internal/storage"
)

// RegisterInput — данные регистрации нового аккаунта.
type RegisterInput struct {
	Email       string
	Password    string
	Nickname    string
	Birthday    string
	Gender      string
	PhoneNumber string
}

// Register регистрирует новый аккаунт и сразу выпускает для него
// bearer-токен.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Account, string, error) {
	const op = "service.accounts.Register"

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.AccountByEmail(ctx, normEmail)
	if err == nil {
		return nil, "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	salt := password.GenerateSalt()
	now := time.Now().UTC()

	account := &models.Account{
		ID:           uuid.New(),
		Email:        normEmail,
		Nickname:     in.Nickname,
		Birthday:     in.Birthday,
		Gender:       in.Gender,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: password.Hash(in.Password, salt),
		PasswordSalt: salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		// Гонка двух регистраций на один email: предварительная проверка
		// прошла, но уникальный индекс сработал при вставке.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	signed, err := s.issueJWT(ctx, account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return account, signed, nil
}

// Login выполняет вход по email+пароль и выпускает новый bearer-токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, pw string) (*models.Account, string, error) {
	const op = "service.accounts.Login"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(pw) == 0 {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	account, err := s.storage.AccountByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if !password.Verify(pw, account.PasswordSalt, account.PasswordHash) {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	signed, err := s.issueJWT(ctx, account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return account, signed, nil
}

// AccountInfo возвращает аккаунт по идентификатору.
func (s *Service) AccountInfo(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	const op = "service.accounts.AccountInfo"

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// UpdateAccount обновляет профильные поля аккаунта.
func (s *Service) UpdateAccount(ctx context.Context, accountID uuid.UUID, nickname string) error {
	const op = "service.accounts.UpdateAccount"

	if err := s.storage.UpdateAccountInfo(ctx, accountID, nickname); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ChangePassword меняет пароль аккаунта.
// Старый пароль обязан подойти, новый — отличаться от текущего;
// соль перегенерируется вместе с хэшем.
func (s *Service) ChangePassword(ctx context.Context, accountID uuid.UUID, oldPW, newPW string) error {
	const op = "service.accounts.ChangePassword"

	if err := validatePassword(newPW); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !password.Verify(oldPW, account.PasswordSalt, account.PasswordHash) {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if password.Verify(newPW, account.PasswordSalt, account.PasswordHash) {
		return fmt.Errorf("%s: %w", op, ErrSamePassword)
	}

	salt := password.GenerateSalt()
	hash := password.Hash(newPW, salt)

	if err := s.storage.UpdatePassword(ctx, accountID, hash, salt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RequestEmailVerification выпускает одноразовый токен подтверждения
// email для аккаунта. Токен отдаётся вызывающей стороне для доставки
// пользователю (письмом — вне зоны ответственности сервиса).
func (s *Service) RequestEmailVerification(ctx context.Context, accountID uuid.UUID) (string, error) {
	const op = "service.accounts.RequestEmailVerification"

	if _, err := s.storage.AccountByID(ctx, accountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateOpaqueToken(ctx, accountID, models.TokenTypeEmailVerification)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return plain, nil
}

// ConfirmEmailVerification подтверждает email по одноразовому токену
// и удаляет использованный токен.
func (s *Service) ConfirmEmailVerification(ctx context.Context, plain string) error {
	const op = "service.accounts.ConfirmEmailVerification"

	lg := log.From(ctx)

	record, err := s.consumeOpaqueToken(ctx, plain, models.TokenTypeEmailVerification)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateEmailVerified(ctx, record.AccountID, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Токен одноразовый: повторное подтверждение по нему невозможно.
	if err := s.storage.DeleteToken(ctx, plain, models.TokenTypeEmailVerification); err != nil && !errors.Is(err, storage.ErrNotFound) {
		lg.Warn("delete_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return nil
}

// RequestPasswordReset выпускает одноразовый токен сброса пароля.
// Для неизвестного email возвращается пустой токен без ошибки, чтобы
// не раскрывать существование аккаунта.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	const op = "service.accounts.RequestPasswordReset"

	normEmail, err := validateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	account, err := s.storage.AccountByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateOpaqueToken(ctx, account.ID, models.TokenTypePasswordReset)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return plain, nil
}

// ResetPassword устанавливает новый пароль по одноразовому токену
// сброса и удаляет использованный токен.
func (s *Service) ResetPassword(ctx context.Context, plain, newPW string) error {
	const op = "service.accounts.ResetPassword"

	lg := log.From(ctx)

	if err := validatePassword(newPW); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	record, err := s.consumeOpaqueToken(ctx, plain, models.TokenTypePasswordReset)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	salt := password.GenerateSalt()
	hash := password.Hash(newPW, salt)

	if err := s.storage.UpdatePassword(ctx, record.AccountID, hash, salt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteToken(ctx, plain, models.TokenTypePasswordReset); err != nil && !errors.Is(err, storage.ErrNotFound) {
		lg.Warn("delete_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.accounts.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
func validatePassword(pw string) error {
	const op = "service.accounts.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
