// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor / ExtractorRegistry: Turn uploaded files into plain text
//   - Chunker: Split text into bounded segments
//   - EmbeddingService: Convert chunk text into vectors
//   - VectorStore: Named collections of vectors with nearest-neighbour query
//   - MetadataStore: One metadata record per database
//   - FileStore: Raw uploads and inspection sidecars
//   - APIKeyStore / UsageStore: Access and accounting ledgers
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or chunker package
package driven
