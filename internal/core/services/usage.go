package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/core/ports/driving"
)

// Ensure UsageService implements the interface.
var _ driving.UsageService = (*UsageService)(nil)

// UsageService records queries in the usage ledger.
type UsageService struct {
	store driven.UsageStore
	now   func() time.Time
}

// NewUsageService creates a new usage service.
func NewUsageService(store driven.UsageStore) *UsageService {
	return &UsageService{store: store, now: time.Now}
}

// TrackQuery counts one query against both the user and the key.
func (s *UsageService) TrackQuery(ctx context.Context, userID, key, databaseID string) error {
	if key == "" || databaseID == "" {
		return fmt.Errorf("%w: key and database id are required", domain.ErrInvalidInput)
	}
	if userID == "" {
		userID = domain.AnonymousUser
	}
	err := s.store.Record(ctx, domain.QueryEvent{
		UserID:     userID,
		APIKey:     key,
		DatabaseID: databaseID,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("track query: %w", err)
	}
	return nil
}

// UserUsage returns a user's aggregate. Unknown users get an empty one.
func (s *UsageService) UserUsage(ctx context.Context, userID string) (*domain.UserUsage, error) {
	if userID == "" {
		userID = domain.AnonymousUser
	}
	usage, err := s.store.User(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewUserUsage(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user usage: %w", err)
	}
	return usage, nil
}

// KeyUsage returns a key's aggregate or ErrNotFound.
func (s *UsageService) KeyUsage(ctx context.Context, key string) (*domain.KeyUsage, error) {
	usage, err := s.store.Key(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read key usage: %w", err)
	}
	return usage, nil
}

// AllUsage returns the whole ledger.
func (s *UsageService) AllUsage(ctx context.Context) (*domain.UsageReport, error) {
	report, err := s.store.Report(ctx)
	if err != nil {
		return nil, fmt.Errorf("read usage: %w", err)
	}
	return report, nil
}
