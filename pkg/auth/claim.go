package auth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Claim is the unverified identity assertion extracted from a request. It is
// a closed union: the only implementations are BasicClaim and BearerClaim.
// Claims are request-scoped and never persisted.
type Claim interface {
	// Scheme returns the Authorization scheme that produced the claim.
	Scheme() string
}

// BasicClaim carries a login identifier and plaintext password from a
// "Basic" Authorization header.
type BasicClaim struct {
	Login    string
	Password string
}

// Scheme satisfies Claim.
func (BasicClaim) Scheme() string { return "Basic" }

// BearerClaim carries a token value from a "Bearer" Authorization header.
type BearerClaim struct {
	Token string
}

// Scheme satisfies Claim.
func (BearerClaim) Scheme() string { return "Bearer" }

// ParseAuthorizationHeader parses the raw Authorization header value into a
// Claim. It is a pure function: no store access, no framework types.
//
// The header must consist of exactly two whitespace-separated tokens,
// "<scheme> <payload>". For "Basic", the payload must be standard base64
// decoding to UTF-8 text of the form "user:password" (split on the first
// colon). For "Bearer", the payload is the token value verbatim. Anything
// else, including a missing header, is a *ParseError.
func ParseAuthorizationHeader(raw string) (Claim, error) {
	if raw == "" {
		return nil, &ParseError{Reason: "missing header"}
	}

	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return nil, &ParseError{Reason: "expected '<scheme> <payload>'"}
	}

	scheme, payload := parts[0], parts[1]
	switch scheme {
	case "Basic":
		return parseBasicPayload(payload)
	case "Bearer":
		return BearerClaim{Token: payload}, nil
	default:
		return nil, &ParseError{Reason: "unsupported scheme " + scheme}
	}
}

// parseBasicPayload decodes the base64 payload of a Basic header.
func parseBasicPayload(payload string) (Claim, error) {
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &ParseError{Reason: "payload is not valid base64"}
	}
	if !utf8.Valid(decoded) {
		return nil, &ParseError{Reason: "payload is not valid UTF-8"}
	}

	login, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return nil, &ParseError{Reason: "payload lacks a ':' separator"}
	}
	return BasicClaim{Login: login, Password: password}, nil
}
