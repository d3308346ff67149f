// Package domain contains the core business entities of the assistant:
// documents and chunks, deterministic identity derivation, ingestion
// reports, retrieval contexts and health status. It has no dependencies
// on adapters or frameworks.
package domain
