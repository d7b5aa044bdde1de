package verification

import (
	"time"

	"github.com/go-auth-nosql/internal/domain"
)

// Kind is the lifecycle position of one (account, purpose) pair.
type Kind int

const (
	NoCode Kind = iota
	Pending
	// Verified is terminal for email verification.
	Verified
	// Consumed is the outcome of a redeemed password reset code. It is never
	// stored: once consumed the slot is empty again and derives as NoCode.
	Consumed
)

func (k Kind) String() string {
	switch k {
	case NoCode:
		return "no_code"
	case Pending:
		return "pending"
	case Verified:
		return "verified"
	case Consumed:
		return "consumed"
	}
	return "unknown"
}

// State is the derived state of a purpose on an account. Record is set only
// for Pending and may be expired.
type State struct {
	Kind   Kind
	Record *domain.VerificationRecord
}

// Derive reads the state of purpose from a.
func Derive(a *domain.Account, p domain.Purpose) State {
	if p == domain.PurposeEmailVerify && a.Verified {
		return State{Kind: Verified}
	}
	if rec := a.Record(p); rec != nil {
		return State{Kind: Pending, Record: rec}
	}
	return State{Kind: NoCode}
}

// checkIssue applies the reissue policy. Email verification refuses to
// replace a live code or to reopen a verified account; a password reset
// always replaces whatever is there.
func checkIssue(p domain.Purpose, st State, now time.Time) error {
	if p == domain.PurposePasswordReset {
		return nil
	}
	switch st.Kind {
	case Verified:
		return domain.ErrAlreadyCompleted
	case Pending:
		if !st.Record.Expired(now) {
			return domain.ErrAlreadyInProgress
		}
	case NoCode, Consumed:
	}
	return nil
}

// accepts reports whether code redeems st at now. Only an exact match on a
// live Pending record is accepted; every other state rejects.
func accepts(st State, code string, now time.Time) bool {
	switch st.Kind {
	case Pending:
		return st.Record.Code == code && !st.Record.Expired(now)
	case NoCode, Verified, Consumed:
		return false
	}
	return false
}

// redeemedKind is the state a successful submission moves to.
func redeemedKind(p domain.Purpose) Kind {
	if p == domain.PurposeEmailVerify {
		return Verified
	}
	return Consumed
}
