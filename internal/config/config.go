package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogFormat string // "json" | "text"
	LogLevel  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTSecret         string // HS256 fallback when no key pair is configured
	JWTExpiry         time.Duration
	CookieSecure      bool

	MailProvider string // "smtp" | "resend" | "log"
	MailFrom     string
	MailTimeout  time.Duration
	MailRetries  int
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ResendAPIKey string

	EmailVerifyTTL   time.Duration
	PasswordResetTTL time.Duration
	SweepThreshold   time.Duration
	SweepInterval    time.Duration

	AllowedOrigins []string // CORS allowed origins
	TrustProxy     bool     // honour X-Forwarded-For / X-Real-IP from a fronting proxy
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts string
	Sessions string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:   getEnv("APP_PORT", "5000"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Accounts: getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Sessions: getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 30*24*time.Hour),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),

		MailProvider: getEnv("MAIL_PROVIDER", "log"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@example.com"),
		MailTimeout:  getEnvDuration("MAIL_TIMEOUT", 10*time.Second),
		MailRetries:  getEnvInt("MAIL_RETRIES", 2),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),

		EmailVerifyTTL:   getEnvDuration("EMAIL_VERIFY_TTL", 3*time.Minute),
		PasswordResetTTL: getEnvDuration("PASSWORD_RESET_TTL", 10*time.Minute),
		SweepThreshold:   getEnvDuration("SWEEP_THRESHOLD", 10*time.Minute),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("3m", "24h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
