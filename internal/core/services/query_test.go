package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vdb/internal/core/domain"
)

type queryFixture struct {
	*databaseFixture
	query *QueryService
	keys  *APIKeyService
	usage *UsageService
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	f := newDatabaseFixture(t, nil)
	keys := NewAPIKeyService(f.keys, f.metadata)
	usage := NewUsageService(memory.NewUsageStore())
	return &queryFixture{
		databaseFixture: f,
		query:           NewQueryService(f.vectors, f.embedder, f.service, keys, usage, 2),
		keys:            keys,
		usage:           usage,
	}
}

// seed ingests chunks whose fake embeddings are [len(text), 1].
func (f *queryFixture) seed(t *testing.T) string {
	t.Helper()
	id, err := f.service.Create(context.Background(), createRequest(
		upload("short.txt", "abc\n\nabcdefghij"),
		upload("long.txt", "abcdefghijklmnopqrst"),
	))
	require.NoError(t, err)
	return id
}

func TestQueryService_Query_Ranked(t *testing.T) {
	f := newQueryFixture(t)
	id := f.seed(t)

	// "abcd" embeds to [4, 1]: nearest is "abc" (distance 1), then the 10-char chunk (36).
	results, err := f.query.Query(context.Background(), domain.QueryRequest{
		DatabaseID: id,
		Text:       "abcd",
		NResults:   3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "abc", results[0].Text)
	assert.Equal(t, "short.txt", results[0].Source)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "abcdefghij", results[1].Text)
	assert.InDelta(t, 36.0, results[1].Score, 1e-9)
	assert.Equal(t, "long.txt", results[2].Source)
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
	assert.LessOrEqual(t, results[1].Score, results[2].Score)
}

func TestQueryService_Query_DefaultCount(t *testing.T) {
	f := newQueryFixture(t)
	id := f.seed(t)

	results, err := f.query.Query(context.Background(), domain.QueryRequest{DatabaseID: id, Text: "x"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQueryService_Query_FewerThanRequested(t *testing.T) {
	f := newQueryFixture(t)
	id := f.seed(t)

	results, err := f.query.Query(context.Background(), domain.QueryRequest{DatabaseID: id, Text: "x", NResults: 10})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryService_Query_MissingCollection(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.query.Query(context.Background(), domain.QueryRequest{DatabaseID: "missing", Text: "x"})
	require.ErrorIs(t, err, domain.ErrCollectionNotFound)
	assert.Zero(t, f.embedder.calls)
}

func TestQueryService_Query_InvalidInput(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.query.Query(context.Background(), domain.QueryRequest{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.query.Query(context.Background(), domain.QueryRequest{DatabaseID: "db", Text: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Query_NoEmbedder(t *testing.T) {
	f := newQueryFixture(t)
	q := NewQueryService(f.vectors, nil, f.service, f.keys, f.usage, 0)

	_, err := q.Query(context.Background(), domain.QueryRequest{DatabaseID: "db", Text: "x"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestQueryService_QueryWithKey(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()
	id := f.seed(t)

	key, err := f.keys.Generate(ctx, id, "alice")
	require.NoError(t, err)

	results, err := f.query.QueryWithKey(ctx, key.Key, "abcd", 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abc", results[0].Text)

	usage, err := f.usage.KeyUsage(ctx, key.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.TotalQueries)
	assert.Equal(t, id, usage.DatabaseID)

	user, err := f.usage.UserUsage(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.Databases[id])
}

func TestQueryService_QueryWithKey_InvalidKey(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()
	id := f.seed(t)

	_, err := f.query.QueryWithKey(ctx, "", "x", 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	_, err = f.query.QueryWithKey(ctx, "vdb-unknown", "x", 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	key, err := f.keys.Generate(ctx, id, "alice")
	require.NoError(t, err)
	require.NoError(t, f.keys.Revoke(ctx, key.Key))

	_, err = f.query.QueryWithKey(ctx, key.Key, "x", 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	report, err := f.usage.AllUsage(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.APIKeys)
}

func TestQueryService_QueryWithKey_NotReady(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()
	require.NoError(t, f.metadata.Create(ctx, &domain.Database{ID: "pending", Status: domain.StatusProcessing}))

	key, err := f.keys.Generate(ctx, "pending", "alice")
	require.NoError(t, err)

	_, err = f.query.QueryWithKey(ctx, key.Key, "x", 1, "")
	require.ErrorIs(t, err, domain.ErrDatabaseNotReady)

	// The attempt is still counted.
	usage, err := f.usage.KeyUsage(ctx, key.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.TotalQueries)
}

func TestQueryService_QueryWithKey_DeletedDatabase(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()
	id := f.seed(t)

	key, err := f.keys.Generate(ctx, id, "alice")
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(ctx, id))

	_, err = f.query.QueryWithKey(ctx, key.Key, "x", 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}
