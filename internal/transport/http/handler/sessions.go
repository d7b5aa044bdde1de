package handler

import (
	"net/http"

	"github.com/go-auth-nosql/internal/application/session"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/transport/http/middleware"
)

// SessionHandler handles login, logout and current-session endpoints.
type SessionHandler struct {
	svc    session.Service
	cookie CookieConfig
}

func NewSessionHandler(svc session.Service, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{svc: svc, cookie: cookie}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.cookie.set(w, result.Bearer)
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Bearer:              result.Bearer,
		Account:             result.Session.Account,
		Session:             toSafeSession(result.Session),
		VerificationPending: !result.Session.Account.Verified,
	})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Account: sess.Account, Session: toSafeSession(sess)})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Logout(r.Context(), claims.SessionID); err != nil {
		httpError(w, r, err)
		return
	}
	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Logged out successfully"})
}
