// Package postgres provides PostgreSQL implementations of the record
// store and the vector index. The vector index requires the pgvector
// extension.
package postgres
