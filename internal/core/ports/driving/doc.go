// Package driving provides interfaces for external actors
// (primary/inbound ports). The CLI and the HTTP API drive the core
// through these.
package driving
