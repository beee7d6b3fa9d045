package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/storage"
)

// LoginIdentifier selects which user fields a Basic login may match.
type LoginIdentifier string

const (
	// LoginByEmail matches the login against the email column only.
	LoginByEmail LoginIdentifier = "email"
	// LoginByUsername matches the login against the username column only.
	LoginByUsername LoginIdentifier = "username"
	// LoginByBoth tries email first, then username.
	LoginByBoth LoginIdentifier = "both"
)

// Identity is the authenticated subset of a user record passed downstream to
// the resource handlers. It never carries the password digest.
type Identity struct {
	ID       int64
	Username string
	Email    string
}

// Authenticator resolves credential claims into authenticated identities.
// It is the single entry point every protected endpoint goes through, and it
// has no side effects beyond the store reads it performs: no token rotation,
// no counters, no caching. Every call re-validates against the store.
type Authenticator struct {
	users      storage.Users
	tokens     *TokenService
	verifier   PasswordVerifier
	identifier LoginIdentifier
}

// NewAuthenticator creates an Authenticator. identifier defaults to
// LoginByEmail when empty.
func NewAuthenticator(users storage.Users, tokens *TokenService, verifier PasswordVerifier, identifier LoginIdentifier) *Authenticator {
	if identifier == "" {
		identifier = LoginByEmail
	}
	return &Authenticator{users: users, tokens: tokens, verifier: verifier, identifier: identifier}
}

// Authenticate resolves claim to an Identity.
//
// Basic claims are checked against the stored bcrypt digest; an unknown login
// and a wrong password return the same ErrUnauthorized, so the error reveals
// nothing about which accounts exist. A verifier fault surfaces as an
// *EncryptionError instead, since it signals a broken record rather than a
// bad credential. Bearer claims delegate to the token service, which folds
// its own failure modes into the same ErrUnauthorized.
func (a *Authenticator) Authenticate(ctx context.Context, claim Claim) (Identity, error) {
	switch c := claim.(type) {
	case BasicClaim:
		return a.authenticateBasic(ctx, c)
	case BearerClaim:
		user, err := a.tokens.Verify(ctx, c.Token)
		if err != nil {
			return Identity{}, err
		}
		return identityOf(user), nil
	default:
		return Identity{}, fmt.Errorf("unsupported claim type %T", claim)
	}
}

// authenticateBasic verifies a login/password pair.
func (a *Authenticator) authenticateBasic(ctx context.Context, claim BasicClaim) (Identity, error) {
	user, err := a.lookupLogin(ctx, claim.Login)
	if errors.Is(err, storage.ErrNotFound) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, fmt.Errorf("looking up user: %w", err)
	}

	// Accounts created without a password can never log in with Basic
	// credentials.
	if user.HashedPassword == "" {
		return Identity{}, ErrUnauthorized
	}

	ok, err := a.verifier.Verify(claim.Password, user.HashedPassword)
	if err != nil {
		return Identity{}, err // *EncryptionError
	}
	if !ok {
		return Identity{}, ErrUnauthorized
	}
	return identityOf(user), nil
}

// lookupLogin finds the user record matching the login identifier policy.
func (a *Authenticator) lookupLogin(ctx context.Context, login string) (api.User, error) {
	switch a.identifier {
	case LoginByUsername:
		return a.users.GetUserByUsername(ctx, login)
	case LoginByBoth:
		user, err := a.users.GetUserByEmail(ctx, login)
		if errors.Is(err, storage.ErrNotFound) {
			return a.users.GetUserByUsername(ctx, login)
		}
		return user, err
	default:
		return a.users.GetUserByEmail(ctx, login)
	}
}

func identityOf(user api.User) Identity {
	return Identity{ID: user.ID, Username: user.Username, Email: user.Email}
}
