// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает доменную ошибку сервисного слоя, а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по маппингу: комментарии к сентинельным ошибкам
// пакета service.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rescuelink/account-service/internal/service"
	"github.com/rescuelink/account-service/internal/token"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrInvalidArgument — локальная ошибка разбора входных данных хендлером.
// Маппится в HTTP 400.
var ErrInvalidArgument = errors.New("invalid argument")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный
// ответ для фронта.
//
// err == nil — программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг доменных ошибок на HTTP-статус/FE-код/сообщение:
//   - невалидные входные данные и политики пароля -> 400
//   - неверные учётные данные и непригодные токены -> 401
//   - аккаунт не найден -> 404
//   - занятый email -> 409
//   - отмена клиентом -> 499, дедлайн -> 504
//   - прочее -> 500/internal
func base(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrSamePassword):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, token.ErrTokenMalformed),
		errors.Is(err, token.ErrTokenInvalid):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "already exists"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
