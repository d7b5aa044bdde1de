package domain

import "time"

// Session is one login of an account. Tokens carry the session id so that a
// disabled session invalidates its token before the token expires.
type Session struct {
	SessionID string    `json:"id" dynamodbav:"session_id"`
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at,unixtime"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at,unixtime"`
	Account   *Account  `json:"account,omitempty" dynamodbav:"-"`
}
