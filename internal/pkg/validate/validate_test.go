package validate

import (
	"testing"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStruct_Valid(t *testing.T) {
	err := Struct(&domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	err := Struct(&domain.ResetPasswordRequest{Email: "nope", Code: "", NewPassword: "123"})
	assert.EqualError(t, err,
		"email must be a valid email address; code is required; newPassword must be at least 6 characters")
}

func TestStruct_PasswordUpperBound(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	err := Struct(&domain.LoginRequest{Email: "ada@example.com", Password: string(long)})
	assert.NoError(t, err)

	err = Struct(&domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: string(long)})
	assert.EqualError(t, err, "password must be at most 72 characters")
}
