package storage

import (
	"context"
	"errors"

	"github.com/radiusdt/vector-insights/internal/models"
)

// ErrNotFound is returned when a record or document does not exist.
var ErrNotFound = errors.New("not found")

// UploadRepo holds the append-only list of processed uploads. Appends
// and deletions are serialized relative to list snapshots so a reader
// never observes a partially updated list.
type UploadRepo interface {
	// List returns a snapshot of all upload records.
	List(ctx context.Context) ([]models.UploadRecord, error)
	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*models.UploadRecord, error)
	// Append stores a new record, assigning its id.
	Append(ctx context.Context, rec models.UploadRecord) (models.UploadRecord, error)
	// Delete removes a record and returns it, or ErrNotFound.
	Delete(ctx context.Context, id int64) (*models.UploadRecord, error)
	// Clear removes every record and returns what was removed.
	Clear(ctx context.Context) ([]models.UploadRecord, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// DocumentStore persists aggregate documents under opaque references.
// Round-tripping a document through a store is lossless for every
// field.
type DocumentStore interface {
	SaveDocument(ctx context.Context, ref string, doc *models.AggregateDocument) error
	LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error)
	DeleteDocument(ctx context.Context, ref string) error
}
