package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-auth-nosql/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields.
type Claims struct {
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies session tokens. It uses RS256 when a key pair
// is configured and HS256 with a shared secret otherwise.
type Provider struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	expiry    time.Duration
	now       func() time.Time
}

// NewProvider loads the RSA key pair from disk. When either file is missing
// and JWT_SECRET is set it falls back to HS256.
func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, privErr := os.ReadFile(cfg.JWTPrivateKeyPath)
	pubBytes, pubErr := os.ReadFile(cfg.JWTPublicKeyPath)
	if privErr != nil || pubErr != nil {
		if cfg.JWTSecret != "" {
			return NewHMACProvider([]byte(cfg.JWTSecret), cfg.JWTExpiry), nil
		}
		return nil, fmt.Errorf("read key pair: %w", errors.Join(privErr, pubErr))
	}

	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return NewRSAProvider(privKey, pubKey, cfg.JWTExpiry), nil
}

func NewRSAProvider(priv *rsa.PrivateKey, pub *rsa.PublicKey, expiry time.Duration) *Provider {
	return &Provider{method: jwt.SigningMethodRS256, signKey: priv, verifyKey: pub, expiry: expiry, now: time.Now}
}

func NewHMACProvider(secret []byte, expiry time.Duration) *Provider {
	return &Provider{method: jwt.SigningMethodHS256, signKey: secret, verifyKey: secret, expiry: expiry, now: time.Now}
}

func (p *Provider) Sign(accountID, sessionID string) (string, error) {
	now := p.now()
	claims := Claims{
		AccountID: accountID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(p.method, claims)
	return token.SignedString(p.signKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != p.method.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return p.verifyKey, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
