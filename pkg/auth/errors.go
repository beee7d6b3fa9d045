package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned whenever a credential claim does not resolve to
// a valid user: unknown login, wrong password, unknown or tampered token. The
// kinds are deliberately indistinguishable so a caller cannot probe which
// accounts exist.
var ErrUnauthorized = errors.New("could not authenticate the user")

// EncryptionError reports a failure of the password-verification primitive
// itself, such as a digest stored in an incompatible format. It is a system
// fault, not a bad credential, and maps to a 500 at the boundary.
type EncryptionError struct {
	Err error
}

// Error implements the error interface.
func (e *EncryptionError) Error() string {
	return fmt.Sprintf("password verification failed: %v", e.Err)
}

// Unwrap exposes the underlying bcrypt error.
func (e *EncryptionError) Unwrap() error { return e.Err }

// ParseError reports a malformed Authorization header. It is produced before
// any store access and maps to a 400 at the boundary.
type ParseError struct {
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "invalid authorization header: " + e.Reason
}
