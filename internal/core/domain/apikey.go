package domain

import "time"

// APIKeyPrefix marks every issued key.
const APIKeyPrefix = "vdb-"

// AnonymousUser owns keys and usage recorded without a user identifier.
const AnonymousUser = "anonymous"

// APIKey grants query access to a single database.
// Multiple keys may exist for the same database and owner.
type APIKey struct {
	Key        string    `json:"key" yaml:"key"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	DatabaseID string    `json:"database_id" yaml:"database_id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Active     bool      `json:"active" yaml:"active"`
}

// ValidFor reports whether the key is active and bound to databaseID.
func (k *APIKey) ValidFor(databaseID string) bool {
	return k != nil && k.Active && k.DatabaseID == databaseID
}
