package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-auth-nosql/internal/domain"
	jwtinfra "github.com/go-auth-nosql/internal/infrastructure/jwt"
)

type contextKey string

const (
	ClaimsKey  contextKey = "claims"
	SessionKey contextKey = "session"
)

// CookieName is the cookie that carries the session token for browser clients.
const CookieName = "jwt"

type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type SessionLoader interface {
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Auth returns middleware that accepts a token from the Authorization header
// or the session cookie, verifies it, checks that its session is still live,
// and injects the claims and session into the request context.
func Auth(verifier TokenVerifier, sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "not authorized, no token")
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			sess, err := sessions.GetCurrent(r.Context(), claims.SessionID)
			if errors.Is(err, domain.ErrUnauthorized) {
				writeJSONError(w, http.StatusUnauthorized, "session expired")
				return
			}
			if err != nil {
				slog.Error("load session", "session_id", claims.SessionID, "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenFromRequest prefers the Authorization header over the cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}

// SessionFromContext returns the live session loaded by Auth.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*domain.Session)
	return s, ok
}
