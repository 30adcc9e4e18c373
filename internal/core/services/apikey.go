package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/core/ports/driving"
	"github.com/custodia-labs/vdb/internal/logger"
)

// Ensure APIKeyService implements the interface.
var _ driving.APIKeyService = (*APIKeyService)(nil)

// apiKeyBytes is the amount of randomness in a key.
const apiKeyBytes = 32

// APIKeyService issues and checks database API keys.
type APIKeyService struct {
	keys     driven.APIKeyStore
	metadata driven.MetadataStore
	now      func() time.Time
}

// NewAPIKeyService creates a new API key service.
// When metadata is non-nil, keys can only be issued for existing databases.
func NewAPIKeyService(keys driven.APIKeyStore, metadata driven.MetadataStore) *APIKeyService {
	return &APIKeyService{
		keys:     keys,
		metadata: metadata,
		now:      time.Now,
	}
}

// Generate issues a new active key for databaseID.
func (s *APIKeyService) Generate(ctx context.Context, databaseID, userID string) (*domain.APIKey, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("%w: database id is required", domain.ErrInvalidInput)
	}
	if s.metadata != nil {
		if _, err := s.metadata.Get(ctx, databaseID); err != nil {
			return nil, fmt.Errorf("database %s: %w", databaseID, err)
		}
	}
	if userID == "" {
		userID = domain.AnonymousUser
	}

	secret, err := generateAPIKey()
	if err != nil {
		return nil, err
	}
	key := &domain.APIKey{
		Key:        secret,
		UserID:     userID,
		DatabaseID: databaseID,
		CreatedAt:  s.now().UTC(),
		Active:     true,
	}
	if err := s.keys.Add(ctx, key); err != nil {
		return nil, fmt.Errorf("store api key: %w", err)
	}

	logger.Info("Issued API key for database %s to %s", databaseID, userID)
	return key, nil
}

// Validate returns the key's owner when it is active for databaseID.
func (s *APIKeyService) Validate(ctx context.Context, databaseID, key string) (string, bool) {
	record, err := s.keys.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Reading api key: %v", err)
		}
		return "", false
	}
	if !record.ValidFor(databaseID) {
		return "", false
	}
	return record.UserID, true
}

// DatabaseFor returns the database a key is bound to.
// Unknown and revoked keys are ErrInvalidAPIKey.
func (s *APIKeyService) DatabaseFor(ctx context.Context, key string) (string, error) {
	record, err := s.keys.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInvalidAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	if !record.Active {
		return "", domain.ErrInvalidAPIKey
	}
	return record.DatabaseID, nil
}

// ListForDatabase returns a database's keys in issue order.
func (s *APIKeyService) ListForDatabase(ctx context.Context, databaseID string) ([]domain.APIKey, error) {
	return s.keys.ListByDatabase(ctx, databaseID)
}

// ListForUser returns a user's keys in issue order.
func (s *APIKeyService) ListForUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	if userID == "" {
		userID = domain.AnonymousUser
	}
	return s.keys.ListByUser(ctx, userID)
}

// Revoke deactivates a key. Revoking twice succeeds.
func (s *APIKeyService) Revoke(ctx context.Context, key string) error {
	if err := s.keys.SetActive(ctx, key, false); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

// generateAPIKey returns the key prefix followed by URL-safe random bytes.
func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return domain.APIKeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
