// Package auth implements credential verification and token handling for the
// plume API.
//
// Authentication is split into three stages, each testable on its own:
//
//   - [ParseAuthorizationHeader] turns the raw Authorization header into a
//     [Claim] (Basic credentials or a bearer token) without touching a store.
//   - [Authenticator.Authenticate] resolves a Claim into an [Identity] using
//     the user store, the bcrypt password verifier, and the token service.
//   - [Middleware] wires both into the HTTP stack and hands failures to the
//     transport error mapper unchanged.
//
// Tokens are HS256-signed JWTs persisted in the tokens table; the signing
// secret is injected through configuration. Verification checks the signature
// before any database access so tampered tokens are rejected cheaply.
//
// IMPORTANT: Basic Auth transmits credentials in base64 encoding (not
// encrypted). TLS must be used in production to protect credentials in
// transit.
package auth
