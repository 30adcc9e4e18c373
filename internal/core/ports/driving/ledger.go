package driving

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// APIKeyService issues and checks database API keys.
type APIKeyService interface {
	// Generate issues a new key for a database.
	Generate(ctx context.Context, databaseID, userID string) (*domain.APIKey, error)

	// Validate returns the owning user if key is active for databaseID.
	Validate(ctx context.Context, databaseID, key string) (string, bool)

	// DatabaseFor returns the database a key is bound to.
	DatabaseFor(ctx context.Context, key string) (string, error)

	// ListForDatabase returns a database's keys.
	ListForDatabase(ctx context.Context, databaseID string) ([]domain.APIKey, error)

	// ListForUser returns a user's keys.
	ListForUser(ctx context.Context, userID string) ([]domain.APIKey, error)

	// Revoke deactivates a key.
	Revoke(ctx context.Context, key string) error
}

// UsageService records and reports query usage.
type UsageService interface {
	// TrackQuery counts one query for the user and the key together.
	TrackQuery(ctx context.Context, userID, key, databaseID string) error

	// UserUsage returns a user's aggregate; unknown users get an empty one.
	UserUsage(ctx context.Context, userID string) (*domain.UserUsage, error)

	// KeyUsage returns a key's aggregate or ErrNotFound.
	KeyUsage(ctx context.Context, key string) (*domain.KeyUsage, error)

	// AllUsage returns the whole ledger.
	AllUsage(ctx context.Context) (*domain.UsageReport, error)
}
