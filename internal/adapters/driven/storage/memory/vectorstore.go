package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.VectorRecord
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string][]domain.VectorRecord),
	}
}

// CreateCollection creates an empty collection.
func (s *VectorStore) CreateCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: collection %s", domain.ErrAlreadyExists, name)
	}
	s.collections[name] = []domain.VectorRecord{}
	return nil
}

// GetCollection describes a collection.
func (s *VectorStore) GetCollection(_ context.Context, name string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	col := &domain.Collection{Name: name, Count: len(records)}
	if len(records) > 0 {
		col.Dimensions = len(records[0].Embedding)
	}
	return col, nil
}

// DeleteCollection removes a collection.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

// Add appends records.
func (s *VectorStore) Add(_ context.Context, name string, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	for _, r := range records {
		r.Embedding = slices.Clone(r.Embedding)
		r.Metadata = maps.Clone(r.Metadata)
		existing = append(existing, r)
	}
	s.collections[name] = existing
	return nil
}

// Query returns the k nearest records by squared Euclidean distance.
func (s *VectorStore) Query(_ context.Context, name string, vector []float32, k int) ([]domain.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	matches := make([]domain.VectorMatch, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) != len(vector) {
			return nil, fmt.Errorf("%w: dimension mismatch", domain.ErrInvalidInput)
		}
		var dist float64
		for i := range vector {
			d := float64(vector[i]) - float64(r.Embedding[i])
			dist += d * d
		}
		matches = append(matches, domain.VectorMatch{
			ID:       r.ID,
			Document: r.Document,
			Metadata: maps.Clone(r.Metadata),
			Distance: dist,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k < len(matches) {
		matches = matches[:max(k, 0)]
	}
	return matches, nil
}

// Count returns the number of records in a collection.
func (s *VectorStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return len(records), nil
}

// Size approximates storage as four bytes per vector component plus the document text.
func (s *VectorStore) Size(_ context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	var total int64
	for _, r := range records {
		total += int64(len(r.Embedding)*4 + len(r.Document))
	}
	return total, nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}
