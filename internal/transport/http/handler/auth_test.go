package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-auth-nosql/internal/application/auth"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_Created(t *testing.T) {
	svc := new(mockAuthSvc)
	a := testAccount()
	req := domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}
	svc.On("Register", mock.Anything, req).Return(&auth.RegisterResult{
		Bearer:              "tok",
		Session:             &domain.Session{SessionID: "s1", AccountID: "a1", Enable: true, Account: a},
		VerificationPending: true,
	}, nil)

	rr := httptest.NewRecorder()
	NewAuthHandler(svc, testCookie).Register(rr, jsonReq(t, http.MethodPost, "/api/auth/register", req))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "$2a$hash")
	var env AuthEnvelope
	decodeBody(t, rr, &env)
	assert.Equal(t, "tok", env.Bearer)
	assert.True(t, env.VerificationPending)
	require.NotNil(t, env.Account)
	assert.Equal(t, "a1", env.Account.AccountID)
	require.NotNil(t, env.Session)
	assert.Nil(t, env.Session.Account)

	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 30*24*60*60, c.MaxAge)
}

func TestRegister_Duplicate(t *testing.T) {
	svc := new(mockAuthSvc)
	svc.On("Register", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("user already exists: %w", domain.ErrConflict))

	rr := httptest.NewRecorder()
	NewAuthHandler(svc, testCookie).Register(rr, jsonReq(t, http.MethodPost, "/api/auth/register",
		domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "User already exists")
	assert.Nil(t, sessionCookie(rr))
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := new(mockAuthSvc)

	rr := httptest.NewRecorder()
	NewAuthHandler(svc, testCookie).Register(rr, jsonReq(t, http.MethodPost, "/api/auth/register",
		domain.RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "123"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_MalformedBody(t *testing.T) {
	svc := new(mockAuthSvc)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))

	rr := httptest.NewRecorder()
	NewAuthHandler(svc, testCookie).Register(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyEmail_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"accepted", nil, http.StatusOK},
		{"wrong or expired code", fmt.Errorf("submit: %w", domain.ErrInvalidOrExpired), http.StatusBadRequest},
		{"unknown email", domain.ErrNotFound, http.StatusNotFound},
		{"store down", errors.New("dynamo: throttled"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockAuthSvc)
			req := domain.CodeRequest{Email: "ada@example.com", Code: "123456"}
			svc.On("VerifyEmail", mock.Anything, req).Return(tc.err)

			rr := httptest.NewRecorder()
			NewAuthHandler(svc, testCookie).VerifyEmail(rr, jsonReq(t, http.MethodPost, "/api/auth/verify-email", req))

			assert.Equal(t, tc.status, rr.Code)
			assert.NotContains(t, rr.Body.String(), "dynamo")
		})
	}
}

func TestResendVerification_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"sent", nil, http.StatusOK},
		{"code still pending", domain.ErrAlreadyInProgress, http.StatusConflict},
		{"already verified", domain.ErrAlreadyCompleted, http.StatusConflict},
		{"mail down", fmt.Errorf("deliver: %w", domain.ErrTransport), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockAuthSvc)
			svc.On("ResendVerification", mock.Anything, "ada@example.com").Return(tc.err)

			rr := httptest.NewRecorder()
			NewAuthHandler(svc, testCookie).ResendVerification(rr, jsonReq(t, http.MethodPost,
				"/api/auth/resend-verification", domain.EmailRequest{Email: "ada@example.com"}))

			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestForgotPassword_SameAckForAnyEmail(t *testing.T) {
	svc := new(mockAuthSvc)
	svc.On("ForgotPassword", mock.Anything, mock.Anything).Return(nil)
	h := NewAuthHandler(svc, testCookie)

	bodies := make([]string, 0, 2)
	for _, email := range []string{"ada@example.com", "nobody@example.com"} {
		rr := httptest.NewRecorder()
		h.ForgotPassword(rr, jsonReq(t, http.MethodPost, "/api/auth/forgot-password", domain.EmailRequest{Email: email}))
		assert.Equal(t, http.StatusOK, rr.Code)
		bodies = append(bodies, rr.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], forgotPasswordAck)
}

func TestVerifyResetCode(t *testing.T) {
	svc := new(mockAuthSvc)
	good := domain.CodeRequest{Email: "ada@example.com", Code: "111111"}
	bad := domain.CodeRequest{Email: "ada@example.com", Code: "222222"}
	svc.On("VerifyResetCode", mock.Anything, good).Return(nil)
	svc.On("VerifyResetCode", mock.Anything, bad).Return(domain.ErrInvalidOrExpired)
	h := NewAuthHandler(svc, testCookie)

	rr := httptest.NewRecorder()
	h.VerifyResetCode(rr, jsonReq(t, http.MethodPost, "/api/auth/verify-reset-code", good))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.VerifyResetCode(rr, jsonReq(t, http.MethodPost, "/api/auth/verify-reset-code", bad))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid or expired code")
}

func TestResetPassword_ClearsCookie(t *testing.T) {
	svc := new(mockAuthSvc)
	req := domain.ResetPasswordRequest{Email: "ada@example.com", Code: "111111", NewPassword: "newsecret"}
	svc.On("ResetPassword", mock.Anything, req).Return(nil)

	rr := httptest.NewRecorder()
	NewAuthHandler(svc, testCookie).ResetPassword(rr, jsonReq(t, http.MethodPost, "/api/auth/reset-password", req))

	assert.Equal(t, http.StatusOK, rr.Code)
	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestResetPassword_ShortPasswordRejected(t *testing.T) {
	svc := new(mockAuthSvc)

	rr := httptest.NewRecorder()
	NewAuthHandler(svc, testCookie).ResetPassword(rr, jsonReq(t, http.MethodPost, "/api/auth/reset-password",
		domain.ResetPasswordRequest{Email: "ada@example.com", Code: "111111", NewPassword: "123"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
}
