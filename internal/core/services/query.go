package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/core/ports/driving"
	"github.com/custodia-labs/vdb/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService embeds query text and searches one collection.
type QueryService struct {
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	databases driving.DatabaseService
	keys      driving.APIKeyService
	usage     driving.UsageService
	nResults  int
}

// NewQueryService creates a new query service.
// nResults is the default result count; zero or less uses domain.DefaultNResults.
// embedder may be nil, in which case every query fails with ErrEmbeddingUnavailable.
func NewQueryService(
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	databases driving.DatabaseService,
	keys driving.APIKeyService,
	usage driving.UsageService,
	nResults int,
) *QueryService {
	if nResults <= 0 {
		nResults = domain.DefaultNResults
	}
	return &QueryService{
		vectors:   vectors,
		embedder:  embedder,
		databases: databases,
		keys:      keys,
		usage:     usage,
		nResults:  nResults,
	}
}

// Query returns the chunks nearest to req.Text, most similar first.
func (s *QueryService) Query(ctx context.Context, req domain.QueryRequest) ([]domain.QueryResult, error) {
	if req.DatabaseID == "" {
		return nil, fmt.Errorf("%w: database id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	// Fail on a missing collection before paying for an embedding.
	if _, err := s.vectors.GetCollection(ctx, req.DatabaseID); err != nil {
		return nil, err
	}

	n := req.NResults
	if n <= 0 {
		n = s.nResults
	}

	vectors, err := s.embedder.Embed(ctx, []string{req.Text}, req.Model)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	matches, err := s.vectors.Query(ctx, req.DatabaseID, vectors[0], n)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]domain.QueryResult, len(matches))
	for i, m := range matches {
		results[i] = domain.QueryResult{
			Text:   m.Document,
			Source: m.Metadata[domain.MetadataSource],
			Score:  m.Distance,
		}
	}
	logger.Debug("Query on %s returned %d of %d requested", req.DatabaseID, len(results), n)
	return results, nil
}

// QueryWithKey answers a query authorised by an API key.
// The key is tracked before the readiness check, so queries against a
// database that is still processing are counted.
func (s *QueryService) QueryWithKey(ctx context.Context, apiKey, text string, nResults int, model string) ([]domain.QueryResult, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is required", domain.ErrInvalidAPIKey)
	}

	databaseID, err := s.keys.DatabaseFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	userID, ok := s.keys.Validate(ctx, databaseID, apiKey)
	if !ok {
		return nil, domain.ErrInvalidAPIKey
	}

	if err := s.usage.TrackQuery(ctx, userID, apiKey, databaseID); err != nil {
		logger.Warn("Tracking query for %s: %v", databaseID, err)
	}

	if status := s.databases.Status(ctx, databaseID); status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: database %s is %s", domain.ErrDatabaseNotReady, databaseID, status)
	}

	return s.Query(ctx, domain.QueryRequest{
		DatabaseID: databaseID,
		Text:       text,
		NResults:   nResults,
		Model:      model,
	})
}
