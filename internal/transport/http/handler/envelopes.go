package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-nosql/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AuthEnvelope wraps register/login responses.
type AuthEnvelope struct {
	Bearer              string          `json:"Bearer,omitempty"`
	Account             *domain.Account `json:"user,omitempty"`
	Session             *domain.Session `json:"session,omitempty"`
	VerificationPending bool            `json:"verificationPending,omitempty"`
	Message             string          `json:"message,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Account *domain.Account `json:"user,omitempty"`
	Session *domain.Session `json:"session,omitempty"`
}

// toSafeSession drops the embedded account so it is not serialized twice.
func toSafeSession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Account = nil
	return &cp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}
