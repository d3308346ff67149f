// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The core services depend on these
// abstractions; adapters implement them.
package driven
