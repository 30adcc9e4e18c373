package driven

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// APIKeyStore persists API key records.
type APIKeyStore interface {
	// Add stores a new key. Returns ErrAlreadyExists on a key collision.
	Add(ctx context.Context, key *domain.APIKey) error

	// Get returns the record for a key string or ErrNotFound.
	Get(ctx context.Context, key string) (*domain.APIKey, error)

	// ListByDatabase returns the keys bound to a database in creation order.
	ListByDatabase(ctx context.Context, databaseID string) ([]domain.APIKey, error)

	// ListByUser returns the keys owned by a user in creation order.
	ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error)

	// SetActive flips the active flag. Returns ErrNotFound if absent.
	SetActive(ctx context.Context, key string, active bool) error

	// DeleteByDatabase removes every key bound to a database.
	DeleteByDatabase(ctx context.Context, databaseID string) error
}

// UsageStore persists per-user and per-key query aggregates.
type UsageStore interface {
	// Record applies one query to both the user and the key aggregate
	// in a single write. Readers never observe one without the other.
	Record(ctx context.Context, event domain.QueryEvent) error

	// User returns a user's aggregate or ErrNotFound.
	User(ctx context.Context, userID string) (*domain.UserUsage, error)

	// Key returns a key's aggregate or ErrNotFound.
	Key(ctx context.Context, key string) (*domain.KeyUsage, error)

	// Report returns the whole ledger.
	Report(ctx context.Context) (*domain.UsageReport, error)
}
