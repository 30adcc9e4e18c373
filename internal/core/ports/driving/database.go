package driving

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// DatabaseService creates, inspects and removes vector databases.
type DatabaseService interface {
	// Create ingests the request's files into a new database and returns its ID.
	// On failure nothing of the database remains.
	Create(ctx context.Context, req domain.CreateDatabaseRequest) (string, error)

	// Status reports the database status. It never fails.
	Status(ctx context.Context, id string) domain.DatabaseStatus

	// Get returns the metadata record or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Database, error)

	// List returns all databases, reconciled against the vector store.
	// An empty owner lists every database.
	List(ctx context.Context, owner string) ([]domain.Database, error)

	// Reconcile checks one record against its collection and repairs the metadata.
	Reconcile(ctx context.Context, id string) (*domain.Database, error)

	// Delete removes the database. Deleting an absent database succeeds.
	Delete(ctx context.Context, id string) error

	// UpdateMetadata merges fields into the record.
	// Returns false without error when no record exists.
	UpdateMetadata(ctx context.Context, id string, update domain.DatabaseUpdate) (bool, error)
}
