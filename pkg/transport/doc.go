// Package transport provides the HTTP boundary utilities shared by all
// handlers: the error-to-status mapper, pagination parsing, and the
// middleware chain (panic recovery, request ID assignment, request logging).
//
// # Error Mapping
//
// Handlers and the auth layer return errors; nothing below this package
// writes HTTP status codes. WriteError performs the single, total mapping
// from error values to response envelopes. Every response body carries the
// uniform {"status": ...} shape from pkg/api, so clients never see internal
// error detail. Server faults are logged with full detail before the
// response is written.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting behavior. Chain composes
// middleware in order: Chain(a, b, c) produces a(b(c(handler))).
package transport
