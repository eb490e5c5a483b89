// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion, search and deletion orchestrators share one
// EmbeddingClient and one CorrelatedIndex, built once at startup.
package services
