package http

import (
	"context"
	"time"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/infrastructure/mail"
	jwtinfra "github.com/go-auth-nosql/internal/infrastructure/jwt"
)

// AccountRepository is the minimal interface the router requires from an account store.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// VerificationRepository is the minimal interface the router requires from a
// one-time-code store.
type VerificationRepository interface {
	Get(ctx context.Context, accountID string, purpose domain.Purpose) (*domain.VerificationRecord, error)
	Put(ctx context.Context, accountID string, purpose domain.Purpose, rec *domain.VerificationRecord) error
	PutIfIdle(ctx context.Context, accountID string, purpose domain.Purpose, rec *domain.VerificationRecord, now time.Time) error
	Redeem(ctx context.Context, accountID string, purpose domain.Purpose, code string, now time.Time, updates map[string]interface{}) error
	Clear(ctx context.Context, accountID string, purpose domain.Purpose) error
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
	DisableByAccount(ctx context.Context, accountID string) error
}

// Mailer delivers outgoing mail with the configured timeout and retries.
type Mailer interface {
	Deliver(ctx context.Context, msg mail.Message) error
}

// TokenProvider signs and verifies session tokens.
type TokenProvider interface {
	Sign(accountID, sessionID string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}
