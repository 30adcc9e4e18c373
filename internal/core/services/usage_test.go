package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vdb/internal/core/domain"
)

func TestUsageService_TrackQuery_Mirrored(t *testing.T) {
	s := NewUsageService(memory.NewUsageStore())
	ctx := context.Background()

	const n = 7
	for range n {
		require.NoError(t, s.TrackQuery(ctx, "alice", "vdb-k", "db1"))
	}

	user, err := s.UserUsage(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, n, user.TotalQueries)
	assert.Equal(t, n, user.Databases["db1"])
	assert.Len(t, user.History, n)
	assert.Equal(t, "vdb-k", user.History[0].APIKey)

	key, err := s.KeyUsage(ctx, "vdb-k")
	require.NoError(t, err)
	assert.Equal(t, n, key.TotalQueries)
	assert.Equal(t, "db1", key.DatabaseID)
	assert.Len(t, key.History, n)
	assert.Equal(t, "alice", key.History[0].UserID)
}

func TestUsageService_UserUsage_Unknown(t *testing.T) {
	s := NewUsageService(memory.NewUsageStore())

	user, err := s.UserUsage(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, user.TotalQueries)
	assert.Empty(t, user.Databases)
	assert.NotNil(t, user.History)
}

func TestUsageService_KeyUsage_Unknown(t *testing.T) {
	s := NewUsageService(memory.NewUsageStore())

	_, err := s.KeyUsage(context.Background(), "vdb-none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsageService_TrackQuery_Anonymous(t *testing.T) {
	s := NewUsageService(memory.NewUsageStore())
	ctx := context.Background()

	require.NoError(t, s.TrackQuery(ctx, "", "vdb-k", "db1"))

	report, err := s.AllUsage(ctx)
	require.NoError(t, err)
	require.Contains(t, report.Users, domain.AnonymousUser)
	assert.Equal(t, 1, report.Users[domain.AnonymousUser].TotalQueries)
	assert.Equal(t, 1, report.APIKeys["vdb-k"].TotalQueries)
}

func TestUsageService_TrackQuery_RequiresKeyAndDatabase(t *testing.T) {
	s := NewUsageService(memory.NewUsageStore())

	assert.ErrorIs(t, s.TrackQuery(context.Background(), "alice", "", "db1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.TrackQuery(context.Background(), "alice", "vdb-k", ""), domain.ErrInvalidInput)
}
