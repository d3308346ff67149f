// Package sqlite provides the SQLite-backed ingestion ledger.
// The schema is managed by embedded migrations applied on open.
package sqlite
