package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage holds the blob backends documents are persisted to.
// Backends stream in both directions and never buffer a whole blob in memory.

// ErrObjectNotFound is returned when the requested blob does not exist.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored blob.
// Key is the location later passed back to Stat, GetRange and Delete.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store used by ingestion and delivery.
//
// Put must either persist the full stream or leave nothing behind: when the
// reader fails mid-way the partial blob is removed and the reader's error is
// returned wrapped.
type Storage interface {
	// Put writes a new blob named name. Names must be plain file names.
	Put(ctx context.Context, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Stat reports blob metadata, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// GetRange streams length bytes starting at offset. A negative length reads to the end.
	GetRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	// Delete removes a blob. Removing a missing blob is not an error.
	Delete(ctx context.Context, key string) error
}
