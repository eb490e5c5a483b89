// Package domain defines the core business entities for jobmatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: A job posting (or resume-derived profile) kept in the record store
//   - Resume: A candidate profile used to build search queries
//   - IndexedPoint: A vector plus denormalised payload in the vector index
//   - IngestResult, SearchResult, DeleteResult: Pipeline call shapes
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
