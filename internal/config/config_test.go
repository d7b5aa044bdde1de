package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.AppPort)
	assert.Equal(t, "accounts", cfg.DynamoTables.Accounts)
	assert.Equal(t, 3*time.Minute, cfg.EmailVerifyTTL)
	assert.Equal(t, 10*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 10*time.Minute, cfg.SweepThreshold)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMAIL_VERIFY_TTL", "90s")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test,https://b.test")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.EmailVerifyTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PASSWORD_RESET_TTL", "soon")
	t.Setenv("SWEEP_THRESHOLD", "-5m")
	t.Setenv("MAIL_RETRIES", "many")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 10*time.Minute, cfg.SweepThreshold)
	assert.Equal(t, 2, cfg.MailRetries)
}
