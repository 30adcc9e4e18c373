package domain

import "time"

// DatabaseStatus is the lifecycle state of a database.
type DatabaseStatus string

// Database statuses. Transitions are processing -> completed or processing -> error.
const (
	StatusProcessing DatabaseStatus = "processing"
	StatusCompleted  DatabaseStatus = "completed"
	StatusError      DatabaseStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s DatabaseStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s DatabaseStatus) String() string {
	return string(s)
}

// CanTransition reports whether a record may move from one status to another.
// Only processing -> completed and processing -> error are allowed; keeping
// the same status is always allowed.
func CanTransition(from, to DatabaseStatus) bool {
	if from == to {
		return true
	}
	return from == StatusProcessing && (to == StatusCompleted || to == StatusError)
}

// MissingCollectionMessage is recorded when a completed database has lost its collection.
const MissingCollectionMessage = "Vector database files not found"

// Database is the metadata record for one ingestion job.
// It is persisted as metadata.json inside the database's directory.
type Database struct {
	// ID is the opaque unique identifier; also the vector collection name.
	ID string `json:"id" yaml:"id"`

	// Name is the user-facing name.
	Name string `json:"name" yaml:"name"`

	// Description is free text supplied at creation.
	Description string `json:"description" yaml:"description"`

	// Sector is a category tag.
	Sector string `json:"sector" yaml:"sector"`

	// CreatedBy is the owner identifier. Empty when anonymous.
	CreatedBy string `json:"created_by,omitempty" yaml:"created_by,omitempty"`

	// Status is the lifecycle state.
	Status DatabaseStatus `json:"status" yaml:"status"`

	// FileCount is the number of uploaded files.
	FileCount int `json:"file_count" yaml:"file_count"`

	// TotalFileSize is the uploaded byte count before processing.
	TotalFileSize int64 `json:"total_file_size" yaml:"total_file_size"`

	// DocumentCount is the number of chunks indexed.
	// Authoritative only once Status is completed.
	DocumentCount int `json:"document_count" yaml:"document_count"`

	// DatabaseSize is the on-disk size in bytes.
	// Authoritative only once Status is completed.
	DatabaseSize int64 `json:"database_size" yaml:"database_size"`

	// ErrorMessage explains an error status.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	// CreatedAt is when ingestion started (UTC).
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the record last changed (UTC).
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DatabaseUpdate is a partial set of metadata fields.
// Nil fields are left unchanged.
type DatabaseUpdate struct {
	Name          *string
	Description   *string
	Sector        *string
	Status        *DatabaseStatus
	DocumentCount *int
	DatabaseSize  *int64
	ErrorMessage  *string
}

// IsEmpty returns true if no field is set.
func (u DatabaseUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Sector == nil && u.Status == nil &&
		u.DocumentCount == nil && u.DatabaseSize == nil && u.ErrorMessage == nil
}

// Apply merges the set fields into db and refreshes UpdatedAt.
func (u DatabaseUpdate) Apply(db *Database, now time.Time) {
	if u.Name != nil {
		db.Name = *u.Name
	}
	if u.Description != nil {
		db.Description = *u.Description
	}
	if u.Sector != nil {
		db.Sector = *u.Sector
	}
	if u.Status != nil {
		db.Status = *u.Status
	}
	if u.DocumentCount != nil {
		db.DocumentCount = *u.DocumentCount
	}
	if u.DatabaseSize != nil {
		db.DatabaseSize = *u.DatabaseSize
	}
	if u.ErrorMessage != nil {
		db.ErrorMessage = *u.ErrorMessage
	}
	db.UpdatedAt = now.UTC()
}
