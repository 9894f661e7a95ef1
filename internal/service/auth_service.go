package service

import (
	"context"
	"time"

	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl authenticates operators against configured Argon2id key
// hashes and issues JWTs for the admin surface.
type AuthServiceImpl struct {
	keys   map[string]string // key id -> encoded hash
	hasher ports.HashService
	tokens ports.TokenService
	log    zerolog.Logger
}

// OperatorKey pairs a key id with its Argon2id hash.
type OperatorKey struct {
	ID   string
	Hash string
}

// NewAuthService creates the auth service from the configured operator
// keys.
func NewAuthService(keys []OperatorKey, hasher ports.HashService, tokens ports.TokenService, log zerolog.Logger) *AuthServiceImpl {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[k.ID] = k.Hash
	}
	return &AuthServiceImpl{keys: m, hasher: hasher, tokens: tokens, log: log}
}

// Login verifies the API key and returns a signed token. Unknown key ids
// and bad secrets fail identically.
func (s *AuthServiceImpl) Login(ctx context.Context, keyID, apiKey string) (string, time.Time, error) {
	hash, ok := s.keys[keyID]
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	match, err := s.hasher.Verify(apiKey, hash)
	if err != nil {
		s.log.Warn().Err(err).Str("key_id", keyID).Msg("hash verification errored")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !match {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(keyID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}

	s.log.Info().Str("key_id", keyID).Msg("operator logged in")
	return token, expiresAt, nil
}
