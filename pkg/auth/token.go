package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/debug"
	"github.com/plume-dev/plume/pkg/storage"
)

// TokenConfig holds the settings for the token service.
type TokenConfig struct {
	// Secret is the HS256 signing key. Required; injected from configuration,
	// never hard-coded.
	Secret []byte

	// TTL is the token lifetime. Zero means tokens never expire, matching
	// the historical behavior of the service.
	TTL time.Duration
}

// TokenService issues and verifies persisted bearer tokens. Token values are
// HS256-signed JWTs whose subject is the owning user's email; each carries a
// unique jti so that repeated logins by the same user produce distinct rows.
type TokenService struct {
	cfg    TokenConfig
	tokens storage.Tokens
	users  storage.Users
}

// NewTokenService creates a token service over the given stores.
func NewTokenService(cfg TokenConfig, tokens storage.Tokens, users storage.Users) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenService{cfg: cfg, tokens: tokens, users: users}, nil
}

// Issue signs a new token for user and persists it bound to user.ID. The
// returned Token's Value is the bearer credential the client must present
// thereafter.
func (s *TokenService) Issue(ctx context.Context, user api.User) (api.Token, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  user.Email,
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.cfg.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.cfg.TTL))
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return api.Token{}, fmt.Errorf("signing token: %w", err)
	}

	token, err := s.tokens.CreateToken(ctx, value, user.ID)
	if err != nil {
		return api.Token{}, fmt.Errorf("persisting token: %w", err)
	}
	return token, nil
}

// Verify resolves a presented token value to its owning user.
//
// The signature (and expiry, when a TTL is configured) is checked before any
// database access, so tampered or malformed values are rejected without a
// round trip. A valid signature still requires an exact row match: values
// signed with the right key but never issued, and tokens whose user has been
// deleted, fail the same way. All rejection paths return ErrUnauthorized so
// callers cannot distinguish "malformed" from "unknown".
func (s *TokenService) Verify(ctx context.Context, value string) (api.User, error) {
	_, err := jwt.Parse(value, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		debug.Log("auth", "token signature rejected", "error", err.Error())
		return api.User{}, ErrUnauthorized
	}

	token, err := s.tokens.GetTokenByValue(ctx, value)
	if errors.Is(err, storage.ErrNotFound) {
		return api.User{}, ErrUnauthorized
	}
	if err != nil {
		return api.User{}, fmt.Errorf("looking up token: %w", err)
	}

	user, err := s.users.GetUser(ctx, token.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		// Stale token: the owning user is gone.
		return api.User{}, ErrUnauthorized
	}
	if err != nil {
		return api.User{}, fmt.Errorf("loading token owner: %w", err)
	}
	return user, nil
}
