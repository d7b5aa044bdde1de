package domain

import (
	"strings"
	"time"
)

// Account is a registered user. One-time-code slots are embedded so that a
// single conditional write can both consume a code and apply its effect.
type Account struct {
	AccountID        string              `json:"_id" dynamodbav:"account_id"`
	Name             string              `json:"name" dynamodbav:"name"`
	Email            string              `json:"email" dynamodbav:"email"`
	PhoneCountryCode string              `json:"phoneCountryCode,omitempty" dynamodbav:"phone_country_code,omitempty"`
	PhoneNumber      string              `json:"phoneNumber,omitempty" dynamodbav:"phone_number,omitempty"`
	PasswordHash     string              `json:"-" dynamodbav:"password_hash"`
	Verified         bool                `json:"isVerified" dynamodbav:"verified"`
	EmailVerify      *VerificationRecord `json:"-" dynamodbav:"email_verify,omitempty"`
	PasswordReset    *VerificationRecord `json:"-" dynamodbav:"password_reset,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" dynamodbav:"created_at,unixtime"`
	UpdatedAt        time.Time           `json:"updatedAt" dynamodbav:"updated_at,unixtime"`
}

// Record returns the slot for purpose, or nil when absent.
func (a *Account) Record(p Purpose) *VerificationRecord {
	switch p {
	case PurposeEmailVerify:
		return a.EmailVerify
	case PurposePasswordReset:
		return a.PasswordReset
	}
	return nil
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6,max=72"`
	PhoneCountryCode string `json:"phoneCountryCode"`
	PhoneNumber      string `json:"phoneNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}
