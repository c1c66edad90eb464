package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rescuelink/account-service/internal/models"
	"github.com/rescuelink/account-service/internal/service"
	apierrors "github.com/rescuelink/account-service/internal/transport/http/errors"
	"github.com/rescuelink/account-service/internal/transport/http/middleware"
)

type createAccountRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Nickname    string `json:"nickname,omitempty"`
	Birthday    string `json:"birthday,omitempty"`
	Gender      string `json:"gender,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	Nickname string `json:"nickname"`
}

type confirmTokenRequest struct {
	Token string `json:"token"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

type confirmResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type authResponse struct {
	Account models.PublicAccount `json:"account"`
	Token   string               `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// CreateAccount — POST /account: регистрация с немедленным входом.
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in createAccountRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	account, signed, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:       in.Email,
		Password:    in.Password,
		Nickname:    in.Nickname,
		Birthday:    in.Birthday,
		Gender:      in.Gender,
		PhoneNumber: in.PhoneNumber,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Account: account.Public(), Token: signed})
}

// Login — POST /account/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	account, signed, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Account: account.Public(), Token: signed})
}

// Logout — POST /account/logout: отзывает текущий токен.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.svc.Logout(r.Context(), tokenID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAccount — GET /account: публичная проекция текущего аккаунта.
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	account, err := h.svc.AccountInfo(r.Context(), accountID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, account.Public())
}

// UpdateAccount — PUT /account: обновление профильных полей.
func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateAccountRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.UpdateAccount(r.Context(), accountID, in.Nickname); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword — POST /account/change-password.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), accountID, in.OldPassword, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestEmailVerification — POST /account/verify-email/request.
// Токен возвращается вызывающей стороне: доставка письмом — забота
// вышестоящего сервиса уведомлений.
func (h *Handlers) RequestEmailVerification(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	plain, err := h.svc.RequestEmailVerification(r.Context(), accountID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: plain})
}

// ConfirmEmailVerification — POST /account/verify-email/confirm.
func (h *Handlers) ConfirmEmailVerification(w http.ResponseWriter, r *http.Request) {
	var in confirmTokenRequest
	if err := decodeStrict(r, &in); err != nil || in.Token == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.ConfirmEmailVerification(r.Context(), in.Token); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset — POST /account/reset-password/request.
// Ответ одинаков для известного и неизвестного email.
func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	plain, err := h.svc.RequestPasswordReset(r.Context(), in.Email)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, tokenResponse{Token: plain})
}

// ResetPassword — POST /account/reset-password/confirm.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in confirmResetRequest
	if err := decodeStrict(r, &in); err != nil || in.Token == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), in.Token, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// accountIDFromContext достаёт идентификатор аккаунта из claims
// авторизованного запроса.
func accountIDFromContext(r *http.Request) (uuid.UUID, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, service.ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return uuid.Nil, service.ErrInvalidToken
	}

	return accountID, nil
}
