package service

import (
	"context"
	"testing"
	"time"

	"yield-vault-engine/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (*AuthServiceImpl, string) {
	t.Helper()
	hasher := NewArgon2HashService()
	apiKey := "op-secret-123"
	hash, err := hasher.Hash(apiKey)
	require.NoError(t, err)

	tokens := NewJWTTokenService(testJWTSecret, time.Hour, "vaultd-test")
	svc := NewAuthService([]OperatorKey{{ID: "ops-1", Hash: hash}}, hasher, tokens, testLogger())
	return svc, apiKey
}

func TestAuthLogin_Success(t *testing.T) {
	svc, apiKey := newTestAuth(t)

	token, expiresAt, err := svc.Login(context.Background(), "ops-1", apiKey)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	validator := NewJWTTokenService(testJWTSecret, time.Hour, "vaultd-test")
	claims, err := validator.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.KeyID)
}

func TestAuthLogin_WrongSecret(t *testing.T) {
	svc, _ := newTestAuth(t)

	_, _, err := svc.Login(context.Background(), "ops-1", "wrong")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidCredentials))
}

func TestAuthLogin_UnknownKeyID(t *testing.T) {
	svc, apiKey := newTestAuth(t)

	_, _, err := svc.Login(context.Background(), "ops-2", apiKey)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidCredentials))
}
