package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier hashes and verifies passwords with bcrypt. The zero value
// uses bcrypt.DefaultCost; a higher cost can be injected from configuration.
type PasswordVerifier struct {
	Cost int
}

// Hash generates the digest for a plaintext password. It errors if the
// password is longer than 72 bytes (a bcrypt limitation).
func (v PasswordVerifier) Hash(password string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", &EncryptionError{Err: err}
	}
	return string(digest), nil
}

// Verify reports whether password resolves to digest. A plain mismatch
// returns (false, nil). A digest that bcrypt cannot interpret at all (wrong
// scheme, truncated) returns an *EncryptionError, never a silent false.
// bcrypt's comparison is constant-time with respect to the password.
func (v PasswordVerifier) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, &EncryptionError{Err: err}
	}
}
