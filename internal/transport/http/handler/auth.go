package handler

import (
	"net/http"

	"github.com/go-auth-nosql/internal/application/auth"
	"github.com/go-auth-nosql/internal/domain"
)

const forgotPasswordAck = "If an account exists for that email, a reset code has been sent"

// AuthHandler handles registration and the one-time-code flows.
type AuthHandler struct {
	svc    auth.Service
	cookie CookieConfig
}

func NewAuthHandler(svc auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeValid(w, r, &req) {
		return
	}
	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.cookie.set(w, result.Bearer)
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Bearer:              result.Bearer,
		Account:             result.Session.Account,
		Session:             toSafeSession(result.Session),
		VerificationPending: result.VerificationPending,
		Message:             "Verification code sent to your email",
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.CodeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.VerifyEmail(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Email verified successfully"})
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Verification code sent"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: forgotPasswordAck})
}

func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req domain.CodeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.VerifyResetCode(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Code is valid"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successfully"})
}
