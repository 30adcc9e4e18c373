package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

var (
	_ driven.APIKeyStore = (*APIKeyStore)(nil)
	_ driven.UsageStore  = (*UsageStore)(nil)
)

// APIKeyStore is an in-memory implementation of driven.APIKeyStore.
type APIKeyStore struct {
	mu    sync.RWMutex
	keys  map[string]domain.APIKey
	order []string
}

// NewAPIKeyStore creates a new in-memory key store.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{keys: make(map[string]domain.APIKey)}
}

// Add stores a new key.
func (s *APIKeyStore) Add(_ context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.Key]; ok {
		return fmt.Errorf("%w: api key", domain.ErrAlreadyExists)
	}
	s.keys[key.Key] = *key
	s.order = append(s.order, key.Key)
	return nil
}

// Get returns the record for a key.
func (s *APIKeyStore) Get(_ context.Context, key string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &k, nil
}

// ListByDatabase returns the keys bound to a database.
func (s *APIKeyStore) ListByDatabase(_ context.Context, databaseID string) ([]domain.APIKey, error) {
	return s.filter(func(k domain.APIKey) bool { return k.DatabaseID == databaseID }), nil
}

// ListByUser returns the keys owned by a user.
func (s *APIKeyStore) ListByUser(_ context.Context, userID string) ([]domain.APIKey, error) {
	return s.filter(func(k domain.APIKey) bool { return k.UserID == userID }), nil
}

// SetActive flips the active flag.
func (s *APIKeyStore) SetActive(_ context.Context, key string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[key]
	if !ok {
		return domain.ErrNotFound
	}
	k.Active = active
	s.keys[key] = k
	return nil
}

// DeleteByDatabase removes every key bound to a database.
func (s *APIKeyStore) DeleteByDatabase(_ context.Context, databaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = slices.DeleteFunc(s.order, func(key string) bool {
		if s.keys[key].DatabaseID == databaseID {
			delete(s.keys, key)
			return true
		}
		return false
	})
	return nil
}

func (s *APIKeyStore) filter(keep func(domain.APIKey) bool) []domain.APIKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.APIKey{}
	for _, key := range s.order {
		if k := s.keys[key]; keep(k) {
			result = append(result, k)
		}
	}
	return result
}

// UsageStore is an in-memory implementation of driven.UsageStore.
type UsageStore struct {
	mu     sync.RWMutex
	report *domain.UsageReport
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{report: domain.NewUsageReport()}
}

// Record applies one query to both aggregates under one lock.
func (s *UsageStore) Record(_ context.Context, e domain.QueryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.report.Users[e.UserID]
	if !ok {
		user = domain.NewUserUsage()
		s.report.Users[e.UserID] = user
	}
	user.Record(e)

	key, ok := s.report.APIKeys[e.APIKey]
	if !ok {
		key = domain.NewKeyUsage(e.DatabaseID)
		s.report.APIKeys[e.APIKey] = key
	}
	key.Record(e)
	return nil
}

// User returns a copy of a user's aggregate.
func (s *UsageStore) User(_ context.Context, userID string) (*domain.UserUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.report.Users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUserUsage(u), nil
}

// Key returns a copy of a key's aggregate.
func (s *UsageStore) Key(_ context.Context, key string) (*domain.KeyUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.report.APIKeys[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyKeyUsage(k), nil
}

// Report returns a deep copy of the ledger.
func (s *UsageStore) Report(_ context.Context) (*domain.UsageReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.NewUsageReport()
	for id, u := range s.report.Users {
		out.Users[id] = copyUserUsage(u)
	}
	for key, k := range s.report.APIKeys {
		out.APIKeys[key] = copyKeyUsage(k)
	}
	return out, nil
}

func copyUserUsage(u *domain.UserUsage) *domain.UserUsage {
	c := domain.NewUserUsage()
	c.TotalQueries = u.TotalQueries
	for db, n := range u.Databases {
		c.Databases[db] = n
	}
	c.History = append(c.History, u.History...)
	return c
}

func copyKeyUsage(k *domain.KeyUsage) *domain.KeyUsage {
	c := domain.NewKeyUsage(k.DatabaseID)
	c.TotalQueries = k.TotalQueries
	c.History = append(c.History, k.History...)
	return c
}
