package domain

import "time"

// QueryEvent is one tracked query.
type QueryEvent struct {
	UserID     string
	APIKey     string
	DatabaseID string
	Timestamp  time.Time
}

// UserQueryEntry is a history entry in a user aggregate.
type UserQueryEntry struct {
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	DatabaseID string    `json:"database_id" yaml:"database_id"`
	APIKey     string    `json:"api_key" yaml:"api_key"`
}

// KeyQueryEntry is a history entry in an API key aggregate.
type KeyQueryEntry struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	UserID    string    `json:"user_id" yaml:"user_id"`
}

// UserUsage aggregates queries made by one user.
type UserUsage struct {
	TotalQueries int              `json:"total_queries" yaml:"total_queries"`
	Databases    map[string]int   `json:"databases" yaml:"databases"`
	History      []UserQueryEntry `json:"history" yaml:"history"`
}

// NewUserUsage returns an empty user aggregate.
func NewUserUsage() *UserUsage {
	return &UserUsage{
		Databases: make(map[string]int),
		History:   []UserQueryEntry{},
	}
}

// Record increments the counters and appends a history entry.
func (u *UserUsage) Record(e QueryEvent) {
	if u.Databases == nil {
		u.Databases = make(map[string]int)
	}
	u.TotalQueries++
	u.Databases[e.DatabaseID]++
	u.History = append(u.History, UserQueryEntry{
		Timestamp:  e.Timestamp,
		DatabaseID: e.DatabaseID,
		APIKey:     e.APIKey,
	})
}

// KeyUsage aggregates queries made with one API key.
type KeyUsage struct {
	TotalQueries int             `json:"total_queries" yaml:"total_queries"`
	DatabaseID   string          `json:"database_id" yaml:"database_id"`
	History      []KeyQueryEntry `json:"history" yaml:"history"`
}

// NewKeyUsage returns an empty key aggregate for databaseID.
func NewKeyUsage(databaseID string) *KeyUsage {
	return &KeyUsage{
		DatabaseID: databaseID,
		History:    []KeyQueryEntry{},
	}
}

// Record increments the counter and appends a history entry.
func (k *KeyUsage) Record(e QueryEvent) {
	k.TotalQueries++
	k.DatabaseID = e.DatabaseID
	k.History = append(k.History, KeyQueryEntry{
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
	})
}

// UsageReport is the full ledger keyed by users and api_keys.
type UsageReport struct {
	Users   map[string]*UserUsage `json:"users" yaml:"users"`
	APIKeys map[string]*KeyUsage  `json:"api_keys" yaml:"api_keys"`
}

// NewUsageReport returns an empty report.
func NewUsageReport() *UsageReport {
	return &UsageReport{
		Users:   make(map[string]*UserUsage),
		APIKeys: make(map[string]*KeyUsage),
	}
}
