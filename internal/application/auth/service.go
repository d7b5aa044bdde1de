package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-nosql/internal/application/session"
	"github.com/go-auth-nosql/internal/application/verification"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/infrastructure/mail"
	"github.com/go-auth-nosql/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const fieldPasswordHash = "password_hash"

type RegisterResult struct {
	Bearer  string
	Session *domain.Session
	// VerificationPending is true while the account still has to confirm its email.
	VerificationPending bool
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, req domain.CodeRequest) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, req domain.CodeRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
}

type accountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type codeService interface {
	NewRecord(purpose domain.Purpose) (*domain.VerificationRecord, error)
	RecordIssued(purpose domain.Purpose)
	Issue(ctx context.Context, accountID string, purpose domain.Purpose) (*domain.VerificationRecord, error)
	Submit(ctx context.Context, accountID string, purpose domain.Purpose, code string, updates map[string]interface{}) (verification.Kind, error)
	Check(ctx context.Context, accountID string, purpose domain.Purpose, code string) error
	Withdraw(ctx context.Context, accountID string, purpose domain.Purpose) error
}

type sessionService interface {
	Open(ctx context.Context, a *domain.Account) (*session.LoginResult, error)
	RevokeAll(ctx context.Context, accountID string) error
}

type mailDeliverer interface {
	Deliver(ctx context.Context, msg mail.Message) error
}

type service struct {
	accounts         accountStore
	codes            codeService
	sessions         sessionService
	mailer           mailDeliverer
	emailVerifyTTL   time.Duration
	passwordResetTTL time.Duration
	bcryptCost       int
	now              func() time.Time
}

type ServiceDeps struct {
	AccountRepo      accountStore
	Codes            codeService
	Sessions         sessionService
	Mailer           mailDeliverer
	EmailVerifyTTL   time.Duration
	PasswordResetTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts:         deps.AccountRepo,
		codes:            deps.Codes,
		sessions:         deps.Sessions,
		mailer:           deps.Mailer,
		emailVerifyTTL:   deps.EmailVerifyTTL,
		passwordResetTTL: deps.PasswordResetTTL,
		bcryptCost:       cost,
		now:              now,
	}
}

// Register creates an unverified account holding its first email code and
// opens a session for it. A failed code email is logged only; the account
// can ask for a new code.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error) {
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user already exists: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	rec, err := s.codes.NewRecord(domain.PurposeEmailVerify)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a := &domain.Account{
		AccountID:        id.New(),
		Name:             req.Name,
		Email:            email,
		PhoneCountryCode: req.PhoneCountryCode,
		PhoneNumber:      req.PhoneNumber,
		PasswordHash:     string(hash),
		EmailVerify:      rec,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.codes.RecordIssued(domain.PurposeEmailVerify)

	if err := s.mailer.Deliver(ctx, mail.VerificationCode(a.Email, a.Name, rec.Code, s.emailVerifyTTL)); err != nil {
		slog.Warn("failed to send verification email", "account_id", a.AccountID, "err", err)
	}

	res, err := s.sessions.Open(ctx, a)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Bearer: res.Bearer, Session: res.Session, VerificationPending: !a.Verified}, nil
}

func (s *service) VerifyEmail(ctx context.Context, req domain.CodeRequest) error {
	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if _, err := s.codes.Submit(ctx, a.AccountID, domain.PurposeEmailVerify, req.Code, nil); err != nil {
		return err
	}
	slog.Info("email verified", "account_id", a.AccountID)
	return nil
}

// ResendVerification replaces an expired email code. Delivery failures are
// returned to the caller.
func (s *service) ResendVerification(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	rec, err := s.codes.Issue(ctx, a.AccountID, domain.PurposeEmailVerify)
	if err != nil {
		return err
	}
	return s.mailer.Deliver(ctx, mail.VerificationCode(a.Email, a.Name, rec.Code, s.emailVerifyTTL))
}

// ForgotPassword issues a reset code when the email belongs to an account.
// Unknown emails succeed silently so the caller cannot enumerate accounts.
// A delivery failure is returned and the code is withdrawn.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		slog.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	rec, err := s.codes.Issue(ctx, a.AccountID, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.mailer.Deliver(ctx, mail.PasswordResetCode(a.Email, a.Name, rec.Code, s.passwordResetTTL)); err != nil {
		// A reset code nobody received is withdrawn.
		if wErr := s.codes.Withdraw(ctx, a.AccountID, domain.PurposePasswordReset); wErr != nil {
			slog.Warn("failed to withdraw undelivered reset code", "account_id", a.AccountID, "err", wErr)
		}
		return err
	}
	return nil
}

// VerifyResetCode checks a reset code without consuming it.
func (s *service) VerifyResetCode(ctx context.Context, req domain.CodeRequest) error {
	a, err := s.resetAccount(ctx, req.Email)
	if err != nil {
		return err
	}
	return s.codes.Check(ctx, a.AccountID, domain.PurposePasswordReset, req.Code)
}

// ResetPassword redeems a reset code and replaces the password in the same
// write, then signs out every session of the account.
func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	a, err := s.resetAccount(ctx, req.Email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if _, err := s.codes.Submit(ctx, a.AccountID, domain.PurposePasswordReset, req.Code,
		map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, a.AccountID); err != nil {
		slog.Warn("failed to revoke sessions after password reset", "account_id", a.AccountID, "err", err)
	}
	slog.Info("password reset", "account_id", a.AccountID)
	return nil
}

// resetAccount looks up the account for a reset flow. An unknown email is
// reported like a wrong code.
func (s *service) resetAccount(ctx context.Context, email string) (*domain.Account, error) {
	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("reset code: %w", domain.ErrInvalidOrExpired)
	}
	return a, err
}
