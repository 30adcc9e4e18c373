package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu        sync.Mutex
	databases map[string]domain.Database
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		databases: make(map[string]domain.Database),
	}
}

// Create stores a new record.
func (s *MetadataStore) Create(_ context.Context, db *domain.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.databases[db.ID]; ok {
		return fmt.Errorf("%w: database %s", domain.ErrAlreadyExists, db.ID)
	}
	s.databases[db.ID] = *db
	return nil
}

// Get retrieves a record by ID.
func (s *MetadataStore) Get(_ context.Context, id string) (*domain.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &db, nil
}

// List returns all records ordered by creation time.
func (s *MetadataStore) List(_ context.Context) ([]domain.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Database, 0, len(s.databases))
	for id := range s.databases {
		result = append(result, s.databases[id])
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Update applies fn under the store lock.
func (s *MetadataStore) Update(_ context.Context, id string, fn func(db *domain.Database) error) (*domain.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := fn(&db); err != nil {
		return nil, err
	}
	s.databases[id] = db
	return &db, nil
}

// Delete removes a record.
func (s *MetadataStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.databases, id)
	return nil
}
