// Package domain defines the core business entities for vdb.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Database: One user-created vector index plus its metadata record
//   - Upload / RawFile: A file handed to ingestion and its buffered form
//   - Chunk: A bounded span of extracted text with its source metadata
//   - VectorRecord / VectorMatch: Rows written to and read from a collection
//   - APIKey / UsageReport: The access and accounting ledgers
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
