package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/validate"
)

const maxBodyBytes = 1 << 20

// httpError maps a service error to a status and a client-safe message.
// Errors without a domain sentinel are logged and reported as a generic 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidOrExpired):
		writeError(w, http.StatusBadRequest, "Invalid or expired code")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, domain.ErrAlreadyInProgress):
		writeError(w, http.StatusConflict, "A code was already sent; wait until it expires")
	case errors.Is(err, domain.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "Email already verified")
	case errors.Is(err, domain.ErrTransport):
		slog.Warn("email delivery failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "Failed to send email, please try again")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeValid reads a JSON body into dst and validates it. On failure the
// response has been written and false is returned.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
