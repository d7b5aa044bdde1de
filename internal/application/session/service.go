package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)

type LoginResult struct {
	Bearer  string
	Session *domain.Session
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	// Open starts a session for an account that has already been authenticated.
	Open(ctx context.Context, a *domain.Account) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	// RevokeAll disables every session of an account.
	RevokeAll(ctx context.Context, accountID string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
	DisableByAccount(ctx context.Context, accountID string) error
}

type jwtSigner interface {
	Sign(accountID, sessionID string) (string, error)
}

type service struct {
	accounts    accountStore
	sessions    sessionStore
	jwtProvider jwtSigner
	expiry      time.Duration
	now         func() time.Time
}

type ServiceDeps struct {
	AccountRepo accountStore
	SessionRepo sessionStore
	JWTProvider jwtSigner
	Expiry      time.Duration
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts:    deps.AccountRepo,
		sessions:    deps.SessionRepo,
		jwtProvider: deps.JWTProvider,
		expiry:      deps.Expiry,
		now:         now,
	}
}

// Login checks the password of the account registered under req.Email.
// Unknown emails and wrong passwords fail identically. Unverified accounts
// may log in.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.Open(ctx, a)
}

func (s *service) Open(ctx context.Context, a *domain.Account) (*LoginResult, error) {
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID: id.New(),
		AccountID: a.AccountID,
		Enable:    true,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(a.AccountID, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.Account = a
	return &LoginResult{Bearer: bearer, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Disable(ctx, sessionID)
}

// GetCurrent returns the session with its account loaded. Disabled and
// expired sessions are ErrUnauthorized.
func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session not found: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !sess.Enable || s.now().After(sess.ExpiresAt) {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	a, err := s.accounts.Get(ctx, sess.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		// The sweeper removed the account.
		return nil, fmt.Errorf("account gone: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	sess.Account = a
	return sess, nil
}

func (s *service) RevokeAll(ctx context.Context, accountID string) error {
	return s.sessions.DisableByAccount(ctx, accountID)
}
