package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor can handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCollectionNotFound indicates the named vector collection does not exist.
	// Querying a missing collection is a client error, never an empty result.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrInvalidAPIKey indicates the key is unknown, revoked, or bound to another database.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrDatabaseNotReady indicates the database has not finished ingestion.
	ErrDatabaseNotReady = errors.New("database not ready")
)
