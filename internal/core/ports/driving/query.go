package driving

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// QueryService answers semantic queries.
type QueryService interface {
	// Query embeds the text and returns the nearest chunks of one database.
	Query(ctx context.Context, req domain.QueryRequest) ([]domain.QueryResult, error)

	// QueryWithKey resolves the key's database, validates and tracks the
	// key, and queries the database once it has completed ingestion.
	QueryWithKey(ctx context.Context, apiKey, text string, nResults int, model string) ([]domain.QueryResult, error)
}
