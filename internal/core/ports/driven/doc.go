// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - EmbeddingProvider: Turns text into raw embedding responses
//   - RecordStore: Record persistence (memory, SQLite, PostgreSQL)
//   - VectorIndex: Point storage and cosine search (memory, SQLite, PostgreSQL, Qdrant)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Structured extraction and job generation. Without it, only JSON ingestion works.
//   - PromptStore: Custom prompt templates. Without it, embedded defaults are used.
//   - TextExtractor: File-to-text conversion for resumes and job descriptions.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
