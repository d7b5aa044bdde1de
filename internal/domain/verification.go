package domain

import "time"

// Purpose names the flow a one-time code belongs to. The value doubles as the
// attribute name of the slot on the account item.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	return p == PurposeEmailVerify || p == PurposePasswordReset
}

// VerificationRecord is an outstanding one-time code. A slot holds either a
// complete record or nothing.
type VerificationRecord struct {
	Code      string    `json:"code" dynamodbav:"code"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
}

// Expired reports whether the record can no longer be accepted at now.
// Both sides are compared in whole seconds, the precision ExpiresAt is
// stored with, so a code is still good throughout its final second.
func (r *VerificationRecord) Expired(now time.Time) bool {
	return now.Unix() > r.ExpiresAt.Unix()
}
