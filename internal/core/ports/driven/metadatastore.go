package driven

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// MetadataStore persists one metadata record per database.
// Writes to the same record are serialised by the implementation.
type MetadataStore interface {
	// Create writes a new record. Returns ErrAlreadyExists if one exists.
	Create(ctx context.Context, db *domain.Database) error

	// Get returns a record or ErrNotFound.
	// An unreadable record is reported as ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Database, error)

	// List returns all readable records.
	List(ctx context.Context) ([]domain.Database, error)

	// Update applies fn to the stored record and writes it back as a
	// single read-modify-write. Returns ErrNotFound if absent.
	Update(ctx context.Context, id string, fn func(db *domain.Database) error) (*domain.Database, error)

	// Delete removes the record and its directory. Missing records are not an error.
	Delete(ctx context.Context, id string) error
}
