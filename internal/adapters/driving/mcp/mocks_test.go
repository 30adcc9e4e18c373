package mcp

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	results []domain.QueryResult
	err     error

	gotKey      string
	gotText     string
	gotNResults int
	gotModel    string
}

func (m *mockQueryService) Query(_ context.Context, _ domain.QueryRequest) ([]domain.QueryResult, error) {
	return m.results, m.err
}

func (m *mockQueryService) QueryWithKey(
	_ context.Context,
	apiKey, text string,
	nResults int,
	model string,
) ([]domain.QueryResult, error) {
	m.gotKey, m.gotText, m.gotNResults, m.gotModel = apiKey, text, nResults, model
	return m.results, m.err
}

// mockDatabaseService is a mock implementation of driving.DatabaseService.
type mockDatabaseService struct {
	databases []domain.Database
	status    domain.DatabaseStatus
	err       error
}

func (m *mockDatabaseService) Create(_ context.Context, _ domain.CreateDatabaseRequest) (string, error) {
	return "", m.err
}

func (m *mockDatabaseService) Status(_ context.Context, _ string) domain.DatabaseStatus {
	return m.status
}

func (m *mockDatabaseService) Get(_ context.Context, id string) (*domain.Database, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.databases {
		if m.databases[i].ID == id {
			db := m.databases[i]
			return &db, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDatabaseService) List(_ context.Context, _ string) ([]domain.Database, error) {
	return m.databases, m.err
}

func (m *mockDatabaseService) Reconcile(ctx context.Context, id string) (*domain.Database, error) {
	return m.Get(ctx, id)
}

func (m *mockDatabaseService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDatabaseService) UpdateMetadata(_ context.Context, _ string, _ domain.DatabaseUpdate) (bool, error) {
	return m.err == nil, m.err
}
