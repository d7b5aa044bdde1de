// Package verification issues and redeems one-time codes for email
// verification and password reset.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/observability"
	"github.com/go-auth-nosql/internal/pkg/otp"
)

// Attribute set on the account when an email code is redeemed.
const fieldVerified = "verified"

type Service interface {
	// NewRecord generates a code for purpose without storing it. Used when the
	// record is written together with a new account; the caller reports the
	// write with RecordIssued.
	NewRecord(purpose domain.Purpose) (*domain.VerificationRecord, error)
	RecordIssued(purpose domain.Purpose)
	Issue(ctx context.Context, accountID string, purpose domain.Purpose) (*domain.VerificationRecord, error)
	Submit(ctx context.Context, accountID string, purpose domain.Purpose, code string, updates map[string]interface{}) (Kind, error)
	Check(ctx context.Context, accountID string, purpose domain.Purpose, code string) error
	// Withdraw discards an outstanding code, e.g. one that could not be delivered.
	Withdraw(ctx context.Context, accountID string, purpose domain.Purpose) error
	State(ctx context.Context, accountID string, purpose domain.Purpose) (State, error)
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

type recordStore interface {
	Get(ctx context.Context, accountID string, purpose domain.Purpose) (*domain.VerificationRecord, error)
	Put(ctx context.Context, accountID string, purpose domain.Purpose, rec *domain.VerificationRecord) error
	PutIfIdle(ctx context.Context, accountID string, purpose domain.Purpose, rec *domain.VerificationRecord, now time.Time) error
	Redeem(ctx context.Context, accountID string, purpose domain.Purpose, code string, now time.Time, updates map[string]interface{}) error
	Clear(ctx context.Context, accountID string, purpose domain.Purpose) error
}

type service struct {
	accounts  accountStore
	records   recordStore
	metrics   *observability.Metrics
	validity  map[domain.Purpose]time.Duration
	now       func() time.Time
	generator func(validity time.Duration, now time.Time) (string, time.Time, error)
}

type ServiceDeps struct {
	Accounts         accountStore
	Records          recordStore
	Metrics          *observability.Metrics
	EmailVerifyTTL   time.Duration
	PasswordResetTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts: deps.Accounts,
		records:  deps.Records,
		metrics:  deps.Metrics,
		validity: map[domain.Purpose]time.Duration{
			domain.PurposeEmailVerify:   deps.EmailVerifyTTL,
			domain.PurposePasswordReset: deps.PasswordResetTTL,
		},
		now:       now,
		generator: otp.Generate,
	}
}

func (s *service) NewRecord(purpose domain.Purpose) (*domain.VerificationRecord, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	code, expiresAt, err := s.generator(s.validity[purpose], s.now())
	if err != nil {
		return nil, err
	}
	return &domain.VerificationRecord{Code: code, ExpiresAt: expiresAt}, nil
}

func (s *service) RecordIssued(purpose domain.Purpose) {
	s.metrics.CodesIssued.WithLabelValues(string(purpose)).Inc()
}

func (s *service) Issue(ctx context.Context, accountID string, purpose domain.Purpose) (*domain.VerificationRecord, error) {
	st, err := s.State(ctx, accountID, purpose)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkIssue(purpose, st, now); err != nil {
		return nil, fmt.Errorf("issue %s code: %w", purpose, err)
	}

	code, expiresAt, err := s.generator(s.validity[purpose], now)
	if err != nil {
		return nil, err
	}
	rec := &domain.VerificationRecord{Code: code, ExpiresAt: expiresAt}

	if purpose == domain.PurposePasswordReset {
		err = s.records.Put(ctx, accountID, purpose, rec)
	} else {
		err = s.records.PutIfIdle(ctx, accountID, purpose, rec, now)
		if errors.Is(err, domain.ErrAlreadyInProgress) {
			err = s.explainLostRace(ctx, accountID, err)
		}
	}
	if err != nil {
		return nil, err
	}
	s.RecordIssued(purpose)
	return rec, nil
}

// explainLostRace re-reads an account whose conditional write lost to a
// concurrent writer and reports AlreadyCompleted when the winner verified it.
func (s *service) explainLostRace(ctx context.Context, accountID string, err error) error {
	a, getErr := s.accounts.Get(ctx, accountID)
	if getErr != nil {
		return getErr
	}
	if a.Verified {
		return fmt.Errorf("issue %s code: %w", domain.PurposeEmailVerify, domain.ErrAlreadyCompleted)
	}
	return err
}

func (s *service) Submit(ctx context.Context, accountID string, purpose domain.Purpose, code string, updates map[string]interface{}) (Kind, error) {
	st, err := s.State(ctx, accountID, purpose)
	if err != nil {
		return st.Kind, err
	}
	now := s.now()
	if !accepts(st, code, now) {
		s.metrics.CodeSubmissions.WithLabelValues(string(purpose), observability.OutcomeRejected).Inc()
		return st.Kind, fmt.Errorf("submit %s code: %w", purpose, domain.ErrInvalidOrExpired)
	}

	effects := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		effects[k] = v
	}
	if purpose == domain.PurposeEmailVerify {
		effects[fieldVerified] = true
	}
	if err := s.records.Redeem(ctx, accountID, purpose, code, now, effects); err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpired) {
			s.metrics.CodeSubmissions.WithLabelValues(string(purpose), observability.OutcomeRejected).Inc()
		}
		return st.Kind, err
	}
	s.metrics.CodeSubmissions.WithLabelValues(string(purpose), observability.OutcomeAccepted).Inc()
	return redeemedKind(purpose), nil
}

// Check applies the acceptance rule of Submit without redeeming. Only the
// code slot is read; a verified account has no email code left to match.
func (s *service) Check(ctx context.Context, accountID string, purpose domain.Purpose, code string) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	rec, err := s.records.Get(ctx, accountID, purpose)
	if err != nil {
		return err
	}
	st := State{Kind: NoCode}
	if rec != nil {
		st = State{Kind: Pending, Record: rec}
	}
	if !accepts(st, code, s.now()) {
		return fmt.Errorf("check %s code: %w", purpose, domain.ErrInvalidOrExpired)
	}
	return nil
}

func (s *service) Withdraw(ctx context.Context, accountID string, purpose domain.Purpose) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	return s.records.Clear(ctx, accountID, purpose)
}

func (s *service) State(ctx context.Context, accountID string, purpose domain.Purpose) (State, error) {
	if !purpose.Valid() {
		return State{}, fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return State{}, err
	}
	return Derive(a, purpose), nil
}
