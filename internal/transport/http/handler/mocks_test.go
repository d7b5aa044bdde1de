package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-auth-nosql/internal/application/auth"
	"github.com/go-auth-nosql/internal/application/session"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req domain.RegisterRequest) (*auth.RegisterResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*auth.RegisterResult)
	return res, args.Error(1)
}

func (m *mockAuthSvc) VerifyEmail(ctx context.Context, req domain.CodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyResetCode(ctx context.Context, req domain.CodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req domain.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*session.LoginResult)
	return res, args.Error(1)
}

func (m *mockSessionSvc) Open(ctx context.Context, a *domain.Account) (*session.LoginResult, error) {
	args := m.Called(ctx, a)
	res, _ := args.Get(0).(*session.LoginResult)
	return res, args.Error(1)
}

func (m *mockSessionSvc) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionSvc) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessionSvc) RevokeAll(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

// --- helpers ---

var testCookie = CookieConfig{Secure: true, MaxAge: 30 * 24 * time.Hour}

func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

func testAccount() *domain.Account {
	return &domain.Account{AccountID: "a1", Name: "Ada", Email: "ada@example.com", PasswordHash: "$2a$hash"}
}
