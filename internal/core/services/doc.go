// Package services contains the application core: the ingestion
// orchestrator and the answer orchestrator. Services depend on driven
// ports only and are wired with concrete adapters at startup.
package services
