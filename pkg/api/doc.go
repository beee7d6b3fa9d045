// Package api defines the wire-level types for the plume blogging API.
//
// This package provides the domain records (users, posts, comments, tokens),
// the request payloads accepted by the HTTP handlers, and the status envelope
// used for error responses.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O. Hashed passwords are never serialized: the field carries a
// `json:"-"` tag, so no response body can leak a digest.
//
// Core types:
//   - [User], [Post], [Comment], [Token]: persisted records
//   - [NewUser], [UpdatedUser], [NewPost], [UpdatedPost], [NewComment],
//     [UpdatedComment]: mutation payloads
//   - [StatusBody]: the uniform error envelope {"status": "..."}
package api
