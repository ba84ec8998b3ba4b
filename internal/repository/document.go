package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateIdentifier is returned by Insert when the content identifier is already taken.
	ErrDuplicateIdentifier = errors.New("duplicate content identifier")
)

// DocumentRepository defines data access for document records.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Insert stores a new record. The store assigns ID and UploadedAt and
	// returns the stored row. A taken UUID yields ErrDuplicateIdentifier.
	Insert(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByUUID returns the record addressed by its content identifier.
	FindByUUID(ctx context.Context, uuid string) (*model.Document, error)

	// ListAll returns every record, newest upload first.
	ListAll(ctx context.Context) ([]model.Document, error)
}
