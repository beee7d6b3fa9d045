package api

import "strings"

// ValidationError describes the first invalid field of a request payload.
// It maps to a 400 response at the transport boundary.
type ValidationError struct {
	Param   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Param + ": " + e.Message
}

func invalid(param, message string) *ValidationError {
	return &ValidationError{Param: param, Message: message}
}

// Validate checks a signup payload. Email format checking is intentionally
// shallow; uniqueness is enforced by the store.
func (u *NewUser) Validate() *ValidationError {
	if u.Name == "" {
		return invalid("name", "name is required")
	}
	if u.Username == "" {
		return invalid("username", "username is required")
	}
	if u.Email == "" {
		return invalid("email", "email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return invalid("email", "email must contain '@'")
	}
	if u.Password == "" {
		return invalid("password", "password is required")
	}
	return nil
}

// Validate checks a post creation payload.
func (p *NewPost) Validate() *ValidationError {
	if p.Title == "" {
		return invalid("title", "title is required")
	}
	if p.Body == "" {
		return invalid("body", "body is required")
	}
	return nil
}

// Validate checks a comment creation payload.
func (c *NewComment) Validate() *ValidationError {
	if c.Body == "" {
		return invalid("body", "body is required")
	}
	if c.UserID == 0 {
		return invalid("user_id", "user_id is required")
	}
	if c.PostID == 0 {
		return invalid("post_id", "post_id is required")
	}
	return nil
}

// Validate checks a login payload.
func (l *LoginRequest) Validate() *ValidationError {
	if l.Email == "" {
		return invalid("email", "email is required")
	}
	if l.Password == "" {
		return invalid("password", "password is required")
	}
	return nil
}
