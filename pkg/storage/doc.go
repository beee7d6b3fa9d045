// Package storage defines the persistence interfaces for the plume API and
// the sentinel errors shared by all adapter implementations.
//
// Two adapters exist: memory (testing and lightweight deployments) and
// postgres (production, backed by a pgx connection pool). Handlers and the
// authentication layer depend only on the interfaces in this package, never
// on a concrete adapter.
package storage
