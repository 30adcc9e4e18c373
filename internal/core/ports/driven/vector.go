package driven

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// VectorStore persists embeddings in named collections.
// Each call is atomic for the collection it touches.
type VectorStore interface {
	// CreateCollection creates an empty collection.
	// Returns ErrAlreadyExists if the name is taken.
	CreateCollection(ctx context.Context, name string) error

	// GetCollection describes a collection.
	// Returns ErrCollectionNotFound if it does not exist.
	GetCollection(ctx context.Context, name string) (*domain.Collection, error)

	// DeleteCollection removes a collection and its files.
	// Returns ErrCollectionNotFound if it does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// Add inserts records in one batch.
	Add(ctx context.Context, name string, records []domain.VectorRecord) error

	// Query returns up to k records ordered by non-decreasing distance.
	// Returns ErrCollectionNotFound if the collection does not exist.
	Query(ctx context.Context, name string, vector []float32, k int) ([]domain.VectorMatch, error)

	// Count returns the number of records in a collection.
	Count(ctx context.Context, name string) (int, error)

	// Size returns the on-disk bytes used by a collection.
	Size(ctx context.Context, name string) (int64, error)

	// Close releases resources.
	Close() error
}
